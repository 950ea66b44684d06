package aims

// DefaultUTCOffsetMinutes applies to airports missing from the offset table
const DefaultUTCOffsetMinutes = 7 * 60

var offsetGroups = map[int][]string{
	-480: {
		"LAX", "SFO", "YVR",
	},
	-360: {
		"ORD",
	},
	-300: {
		"EWR", "JFK",
	},
	0: {
		"LGW", "LHR",
	},
	60: {
		"AMS", "CDG", "FRA", "MUC", "ORY", "ZRH",
	},
	180: {
		"DME", "DOH", "IST", "SVO",
	},
	240: {
		"AUH", "DXB",
	},
	330: {
		"AMD", "BLR", "BOM", "CCU", "COK", "DEL", "GOI", "HYD", "MAA", "TRV",
	},
	390: {
		"MDL", "RGN",
	},
	420: {
		"BKK", "BMV", "CAH", "CGK", "CNX", "CXR", "DAD", "DIN", "DLI", "DMK", "HAN", "HKT",
		"HPH", "HUI", "LPQ", "PNH", "PQC", "PXU", "REP", "SGN", "SUB", "TBB", "THD", "UIH",
		"USM", "VCA", "VCL", "VCS", "VDO", "VII", "VKG", "VTE",
	},
	480: {
		"CAN", "CEB", "CGO", "CSX", "CTU", "DLC", "DPS", "FOC", "HAK", "HGH", "HKG", "KHH",
		"KMG", "KUL", "KWL", "LGK", "LHW", "MFM", "MNL", "NKG", "NNG", "PEK", "PEN", "PER",
		"PKX", "PVG", "RMQ", "SHA", "SIN", "SYX", "SZX", "TAO", "TNA", "TPE", "TSA", "WNZ",
		"WUH", "XIY", "XMN",
	},
	540: {
		"CJJ", "CJU", "CTS", "FUK", "GMP", "HND", "ICN", "KIX", "MWX", "NGO", "NRT", "OKA",
		"PUS", "TAE",
	},
	600: {
		"BNE", "KHV", "VVO",
	},
	630: {
		"ADL",
	},
	660: {
		"MEL", "SYD",
	},
}

var airportOffsets = func() map[string]int {
	m := make(map[string]int)
	for offset, codes := range offsetGroups {
		for _, code := range codes {
			m[code] = offset
		}
	}
	return m
}()

// UTCOffsetMinutes returns the standard UTC offset of an airport
func UTCOffsetMinutes(code string) int {
	if off, ok := airportOffsets[code]; ok {
		return off
	}
	return DefaultUTCOffsetMinutes
}

package aims

// envelope is the SOAP 1.1 response envelope
type envelope struct {
	Body struct {
		Fault   *fault `xml:"Fault"`
		Content []byte `xml:",innerxml"`
	} `xml:"Body"`
}

type fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

// operationResponse is the <MethodResponse> element wrapping <MethodResult>
type operationResponse[T any] struct {
	Result T `xml:",any"`
}

type flightItem struct {
	FlightDD      string `xml:"FlightDD"`
	FlightMM      string `xml:"FlightMM"`
	FlightYY      string `xml:"FlightYY"`
	FlightDate    string `xml:"FlightDate"`
	FlightCarrier string `xml:"FlightCarrier"`
	FlightNo      string `xml:"FlightNo"`
	FlightLegCD   string `xml:"FlightLegCD"`
	FlightDep     string `xml:"FlightDep"`
	FlightArr     string `xml:"FlightArr"`
	FlightAcType  string `xml:"FlightAcType"`
	FlightReg     string `xml:"FlightReg"`
	FlightStd     string `xml:"FlightStd"`
	FlightSta     string `xml:"FlightSta"`
	FlightEtd     string `xml:"FlightEtd"`
	FlightEta     string `xml:"FlightEta"`
	FlightAtd     string `xml:"FlightAtd"`
	FlightAta     string `xml:"FlightAta"`
	FlightStatus  string `xml:"FlightStatus"`
	FlightBlkTime string `xml:"FlightBlkTime"`
	FlightPax     string `xml:"FlightPax"`
}

type flightDetailsResult struct {
	ErrorExplanation string       `xml:"ErrorExplanation"`
	Flights          []flightItem `xml:"FlightList>TAIMSFlight"`
}

type crewItem struct {
	ID             string `xml:"Id"`
	CrewName       string `xml:"CrewName"`
	ShortName      string `xml:"ShortName"`
	Sex            string `xml:"Sex"`
	Email          string `xml:"Email"`
	Location       string `xml:"Location"`
	Qualifications string `xml:"Qualifications"`
}

type crewListResult struct {
	ErrorExplanation string     `xml:"ErrorExplanation"`
	Crew             []crewItem `xml:"CrewList>TAIMSGetCrewItm"`
}

type rosterItem struct {
	RostDD    string `xml:"RostDD"`
	RostMM    string `xml:"RostMM"`
	RostYY    string `xml:"RostYY"`
	DutyCode  string `xml:"DutyCode"`
	FltNo     string `xml:"FltNo"`
	Dep       string `xml:"Dep"`
	StartTime string `xml:"StartTime"`
	EndTime   string `xml:"EndTime"`
	BlockTime string `xml:"BlkTime"`
}

type rosterResult struct {
	ErrorExplanation string       `xml:"ErrorExplanation"`
	Items            []rosterItem `xml:"TAIMSCrewRostDetailList>TAIMSCrewRostDetail"`
}

type modLogItem struct {
	Flt        string `xml:"FltsSchedModLog_Flt"`
	LegCd      string `xml:"FltsSchedModLog_LegCd"`
	Day        string `xml:"FltsSchedModLog_Day"`
	Dep        string `xml:"FltsSchedModLog_Dep"`
	Arr        string `xml:"FltsSchedModLog_Arr"`
	Status     string `xml:"FltsSchedModLog_Status"`
	Field      string `xml:"FltsSchedModLog_Field"`
	OldValue   string `xml:"FltsSchedModLog_OldValue"`
	NewValue   string `xml:"FltsSchedModLog_NewValue"`
	ModifiedBy string `xml:"FltsSchedModLog_ModifiedBy"`
	ModifiedAt string `xml:"FltsSchedModLog_ModifiedAt"`
}

type modLogResult struct {
	ErrorExplanation string       `xml:"ErrorExplanation"`
	Items            []modLogItem `xml:"FltsSchedModificationList>TAimsFltsSchedModLogItem"`
}

type aircraftItem struct {
	Type    string `xml:"cAcType"`
	Reg     string `xml:"cACReg"`
	Country string `xml:"cACCountry"`
}

type aircraftResult struct {
	Items []aircraftItem `xml:"TAIMSAircraft"`
}

type airportItem struct {
	Code    string `xml:"cAirportCode"`
	Name    string `xml:"cAirportName"`
	Country string `xml:"cCountryCode"`
	TzName  string `xml:"cTimeZone"`
}

type airportResult struct {
	Items []airportItem `xml:"TAIMSAirport"`
}

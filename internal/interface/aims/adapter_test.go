package aims

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/pkg/logger"
)

func soapResponse(method, result string) string {
	return `<?xml version="1.0" encoding="utf-8"?>
<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">
  <soap:Body>
    <` + method + `Response xmlns="http://tempuri.org/">
      <` + method + `Result>` + result + `</` + method + `Result>
    </` + method + `Response>
  </soap:Body>
</soap:Envelope>`
}

type fakeAIMS struct {
	mu       sync.Mutex
	calls    map[string]int
	bodies   []string
	handlers map[string]func(body string) (int, string)
}

func newFakeAIMS() *fakeAIMS {
	return &fakeAIMS{calls: map[string]int{}, handlers: map[string]func(string) (int, string){}}
}

func (f *fakeAIMS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	action := strings.Trim(r.Header.Get("SOAPAction"), `"`)
	method := action[strings.LastIndex(action, "/")+1:]

	f.mu.Lock()
	f.calls[method]++
	f.bodies = append(f.bodies, string(raw))
	h := f.handlers[method]
	f.mu.Unlock()

	if h == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	status, body := h(string(raw))
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeAIMS) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func newTestAdapter(t *testing.T, srv *httptest.Server) *Adapter {
	t.Helper()
	client := NewClient(ClientConfig{
		Endpoint: srv.URL,
		Crew:     Credentials{Username: "crew", Password: "secret"},
		Flights:  Credentials{Username: "ops", Password: "secret2"},
		Timeout:  5 * time.Second,
	}, logger.NewNop())
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	a := NewAdapter(client, 3, clock, logger.NewNop())
	t.Cleanup(a.Close)
	return a
}

func window(from, to string) entity.TimeWindow {
	f, _ := entity.ParseDate(from)
	tt, _ := entity.ParseDate(to)
	return entity.NewTimeWindow(f, tt)
}

func TestAdapter_FetchCrew_SkipsMalformed(t *testing.T) {
	t.Parallel()

	fake := newFakeAIMS()
	fake.handlers[methodCrewList] = func(string) (int, string) {
		return http.StatusOK, soapResponse(methodCrewList, `
<CrewList>
  <TAIMSGetCrewItm><Id>C-1001</Id><CrewName>Nguyen Van A</CrewName><Sex>m</Sex><Location>sgn</Location><Email>A@X.VN</Email></TAIMSGetCrewItm>
  <TAIMSGetCrewItm><Id></Id><CrewName>No Id</CrewName></TAIMSGetCrewItm>
  <TAIMSGetCrewItm><Id>C-1002</Id><CrewName>Tran Thi B</CrewName><Location>HAN</Location></TAIMSGetCrewItm>
</CrewList>`)
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	batch, err := newTestAdapter(t, srv).Fetch(context.Background(), entity.KindCrew, window("2025-03-01", "2025-03-10"))
	require.NoError(t, err)
	require.Len(t, batch.Crew, 2)
	require.Len(t, batch.Rejected, 1)
	require.Equal(t, "Id", batch.Rejected[0].Field)

	c := batch.Crew[0]
	require.Equal(t, "C-1001", c.CrewID)
	require.Equal(t, "SGN", c.Base)
	require.Equal(t, "M", c.Gender)
	require.Equal(t, "a@x.vn", c.Email)
	require.Equal(t, entity.SourceAIMS, c.Source)

	require.Contains(t, fake.bodies[0], "<UN>crew</UN>")
	require.Contains(t, fake.bodies[0], "<FmDD>01</FmDD>")
	require.Contains(t, fake.bodies[0], "<ToYY>2025</ToYY>")
}

func TestAdapter_FetchFlights_PerDayWithFlightCredentials(t *testing.T) {
	t.Parallel()

	fake := newFakeAIMS()
	fake.handlers[methodFlights] = func(body string) (int, string) {
		if !strings.Contains(body, "<FromDD>10</FromDD>") {
			return http.StatusOK, soapResponse(methodFlights, `<FlightList></FlightList>`)
		}
		return http.StatusOK, soapResponse(methodFlights, `
<FlightList>
  <TAIMSFlight>
    <FlightDate>10/03/2025</FlightDate><FlightNo>vn123</FlightNo><FlightDep>SGN</FlightDep><FlightArr>HAN</FlightArr>
    <FlightAcType>A321</FlightAcType><FlightReg>VN-A888</FlightReg>
    <FlightStd>23:30</FlightStd><FlightSta>01:40</FlightSta><FlightAtd>23:50</FlightAtd>
    <FlightBlkTime>02:10</FlightBlkTime><FlightStatus>Arrived</FlightStatus>
  </TAIMSFlight>
  <TAIMSFlight><FlightDate>10/03/2025</FlightDate><FlightNo>VN9</FlightNo><FlightDep>??</FlightDep></TAIMSFlight>
</FlightList>`)
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	batch, err := newTestAdapter(t, srv).Fetch(context.Background(), entity.KindFlight, window("2025-03-09", "2025-03-10"))
	require.NoError(t, err)
	require.Equal(t, 2, fake.count(methodFlights))
	require.Len(t, batch.Flights, 1)
	require.Len(t, batch.Rejected, 1)

	f := batch.Flights[0]
	require.Equal(t, entity.FlightKey{FlightDate: "2025-03-10", FlightNumber: "VN123", Departure: "SGN"}, f.FlightKey)
	require.Equal(t, time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC), *f.STD)
	require.Equal(t, time.Date(2025, 3, 11, 1, 40, 0, 0, time.UTC), *f.STA)
	require.Equal(t, 20, f.DelayMinutes())
	require.Equal(t, 130, f.BlockMinutes)

	for _, b := range fake.bodies {
		require.Contains(t, b, "<UN>ops</UN>")
	}
}

func TestAdapter_FetchRoster_FansOutPerCrew(t *testing.T) {
	t.Parallel()

	fake := newFakeAIMS()
	fake.handlers[methodCrewList] = func(string) (int, string) {
		var items strings.Builder
		for i := 1; i <= 6; i++ {
			fmt.Fprintf(&items, "<TAIMSGetCrewItm><Id>C-%d</Id><CrewName>Crew %d</CrewName></TAIMSGetCrewItm>", i, i)
		}
		return http.StatusOK, soapResponse(methodCrewList, "<CrewList>"+items.String()+"</CrewList>")
	}
	fake.handlers[methodRoster] = func(string) (int, string) {
		return http.StatusOK, soapResponse(methodRoster, `
<TAIMSCrewRostDetailList>
  <TAIMSCrewRostDetail><RostDD>10</RostDD><RostMM>03</RostMM><RostYY>25</RostYY><DutyCode>VN123</DutyCode><Dep>SGN</Dep></TAIMSCrewRostDetail>
  <TAIMSCrewRostDetail><RostDD>11</RostDD><RostMM>03</RostMM><RostYY>25</RostYY><DutyCode>SBY</DutyCode></TAIMSCrewRostDetail>
</TAIMSCrewRostDetailList>`)
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	batch, err := newTestAdapter(t, srv).Fetch(context.Background(), entity.KindRoster, window("2025-03-10", "2025-03-11"))
	require.NoError(t, err)
	require.Equal(t, 6, fake.count(methodRoster))
	require.Len(t, batch.Roster, 12)

	var fly, sby int
	for _, a := range batch.Roster {
		switch a.ActivityType {
		case entity.ActivityFly:
			fly++
			require.Equal(t, "2025-03-10", a.ActivityDate)
			require.Equal(t, "VN123", a.FlightNumber)
		case entity.ActivityStandby:
			sby++
		}
	}
	require.Equal(t, 6, fly)
	require.Equal(t, 6, sby)
}

func TestAdapter_FetchRoster_SkipsUnavailableCrew(t *testing.T) {
	t.Parallel()

	crewList := func(string) (int, string) {
		var items strings.Builder
		for i := 1; i <= 4; i++ {
			fmt.Fprintf(&items, "<TAIMSGetCrewItm><Id>C-%d</Id><CrewName>Crew %d</CrewName></TAIMSGetCrewItm>", i, i)
		}
		return http.StatusOK, soapResponse(methodCrewList, "<CrewList>"+items.String()+"</CrewList>")
	}
	roster := soapResponse(methodRoster, `
<TAIMSCrewRostDetailList>
  <TAIMSCrewRostDetail><RostDD>10</RostDD><RostMM>03</RostMM><RostYY>25</RostYY><DutyCode>VN123</DutyCode><Dep>SGN</Dep></TAIMSCrewRostDetail>
</TAIMSCrewRostDetailList>`)

	t.Run("one crew down", func(t *testing.T) {
		t.Parallel()
		fake := newFakeAIMS()
		fake.handlers[methodCrewList] = crewList
		fake.handlers[methodRoster] = func(body string) (int, string) {
			if strings.Contains(body, "<ID>C-3</ID>") {
				return http.StatusBadGateway, "upstream down"
			}
			return http.StatusOK, roster
		}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		batch, err := newTestAdapter(t, srv).Fetch(context.Background(), entity.KindRoster, window("2025-03-10", "2025-03-10"))
		require.NoError(t, err)
		require.Equal(t, 4, fake.count(methodRoster))
		require.Len(t, batch.Roster, 3)
		require.Len(t, batch.Rejected, 1)
		require.Contains(t, batch.Rejected[0].Reason, "C-3")
		for _, a := range batch.Roster {
			require.NotEqual(t, "C-3", a.CrewID)
		}
	})

	t.Run("every crew down", func(t *testing.T) {
		t.Parallel()
		fake := newFakeAIMS()
		fake.handlers[methodCrewList] = crewList
		fake.handlers[methodRoster] = func(string) (int, string) { return http.StatusBadGateway, "upstream down" }
		srv := httptest.NewServer(fake)
		defer srv.Close()

		_, err := newTestAdapter(t, srv).Fetch(context.Background(), entity.KindRoster, window("2025-03-10", "2025-03-10"))
		require.ErrorIs(t, err, entity.ErrSourceUnavailable)
	})

	t.Run("auth failure aborts", func(t *testing.T) {
		t.Parallel()
		fake := newFakeAIMS()
		fake.handlers[methodCrewList] = crewList
		fake.handlers[methodRoster] = func(body string) (int, string) {
			if strings.Contains(body, "<ID>C-2</ID>") {
				return http.StatusUnauthorized, ""
			}
			return http.StatusOK, roster
		}
		srv := httptest.NewServer(fake)
		defer srv.Close()

		_, err := newTestAdapter(t, srv).Fetch(context.Background(), entity.KindRoster, window("2025-03-10", "2025-03-10"))
		require.ErrorIs(t, err, entity.ErrAuth)
	})
}

func TestAdapter_AuthFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]func(string) (int, string){
		"http 401": func(string) (int, string) { return http.StatusUnauthorized, "" },
		"soap fault": func(string) (int, string) {
			return http.StatusInternalServerError, `<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body>
<soap:Fault><faultcode>soap:Client</faultcode><faultstring>Invalid login credentials</faultstring></soap:Fault>
</soap:Body></soap:Envelope>`
		},
		"error explanation": func(string) (int, string) {
			return http.StatusOK, soapResponse(methodCrewList, `<ErrorExplanation>Wrong password</ErrorExplanation>`)
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			fake := newFakeAIMS()
			fake.handlers[methodCrewList] = h
			srv := httptest.NewServer(fake)
			defer srv.Close()

			_, err := newTestAdapter(t, srv).Fetch(context.Background(), entity.KindCrew, window("2025-03-10", "2025-03-10"))
			require.ErrorIs(t, err, entity.ErrAuth)
			require.False(t, entity.IsRetryable(err))
		})
	}
}

func TestAdapter_UnavailableFailures(t *testing.T) {
	t.Parallel()

	fake := newFakeAIMS()
	fake.handlers[methodCrewList] = func(string) (int, string) { return http.StatusBadGateway, "upstream down" }
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := newTestAdapter(t, srv).Fetch(context.Background(), entity.KindCrew, window("2025-03-10", "2025-03-10"))
	require.ErrorIs(t, err, entity.ErrSourceUnavailable)
	require.True(t, entity.IsRetryable(err))

	var serr *entity.SourceError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, methodCrewList, serr.Op)
}

func TestAdapter_ExplanationWithoutAuthIsEmptyResult(t *testing.T) {
	t.Parallel()

	fake := newFakeAIMS()
	fake.handlers[methodModLog] = func(string) (int, string) {
		return http.StatusOK, soapResponse(methodModLog, `<ErrorExplanation>No data for period</ErrorExplanation>`)
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	batch, err := newTestAdapter(t, srv).Fetch(context.Background(), entity.KindModLog, window("2025-03-10", "2025-03-10"))
	require.NoError(t, err)
	require.Zero(t, batch.Len())
}

func TestAdapter_FetchReference_FillsOffsets(t *testing.T) {
	t.Parallel()

	fake := newFakeAIMS()
	fake.handlers[methodAircraft] = func(string) (int, string) {
		return http.StatusOK, soapResponse(methodAircraft, `<TAIMSAircraft><cAcType>A321</cAcType><cACReg>vn-a888</cACReg><cACCountry>VN</cACCountry></TAIMSAircraft>`)
	}
	fake.handlers[methodAirports] = func(string) (int, string) {
		return http.StatusOK, soapResponse(methodAirports, `
<TAIMSAirport><cAirportCode>DEL</cAirportCode><cAirportName>Delhi</cAirportName><cCountryCode>IN</cCountryCode></TAIMSAirport>
<TAIMSAirport><cAirportCode>XXX</cAirportCode><cAirportName>Unknown</cAirportName></TAIMSAirport>`)
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	batch, err := newTestAdapter(t, srv).Fetch(context.Background(), entity.KindReference, entity.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, batch.Aircraft, 1)
	require.Equal(t, "VN-A888", batch.Aircraft[0].Registration)
	require.Len(t, batch.Airports, 2)
	require.Equal(t, 330, batch.Airports[0].UTCOffsetMinutes)
	require.Equal(t, DefaultUTCOffsetMinutes, batch.Airports[1].UTCOffsetMinutes)
}

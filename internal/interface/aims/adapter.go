package aims

import (
	"context"
	"errors"
	"fmt"

	"github.com/alitto/pond/v2"
	"github.com/jonboulle/clockwork"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/internal/domain/repository"
	"crewsync-service/pkg/logger"
)

const (
	methodCrewList = "GetCrewList"
	methodRoster   = "CrewMemberRosterDetailsForPeriod"
	methodFlights  = "FlightDetailsForPeriod"
	methodModLog   = "FlightScheduleModificationLog"
	methodAircraft = "FetchAircraft"
	methodAirports = "FetchAirports"
)

type crewRoster struct {
	index  int
	crewID string
	items  []rosterItem
	// err is set when this crew member's roster could not be fetched
	err error
}

// Adapter is the live AIMS source
type Adapter struct {
	client     *Client
	rosterPool pond.ResultPool[crewRoster]
	clock      clockwork.Clock
	logger     logger.Logger
}

// NewAdapter creates the AIMS source adapter. maxConcurrent bounds the
// in-flight per-crew roster calls.
func NewAdapter(client *Client, maxConcurrent int, clock clockwork.Clock, logger logger.Logger) *Adapter {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Adapter{
		client:     client,
		rosterPool: pond.NewResultPool[crewRoster](maxConcurrent),
		clock:      clock,
		logger:     logger,
	}
}

var _ repository.SourceAdapter = (*Adapter)(nil)

// Source identifies the adapter
func (a *Adapter) Source() entity.Source {
	return entity.SourceAIMS
}

// Close waits for in-flight roster calls and stops the worker pool
func (a *Adapter) Close() {
	a.rosterPool.StopAndWait()
}

// Fetch retrieves every record of kind within window
func (a *Adapter) Fetch(ctx context.Context, kind entity.EntityKind, window entity.TimeWindow) (*entity.Batch, error) {
	batch := &entity.Batch{Kind: kind, Source: entity.SourceAIMS, FetchedAt: a.clock.Now().UTC()}

	var err error
	switch kind {
	case entity.KindCrew:
		err = a.fetchCrew(ctx, window, batch)
	case entity.KindRoster:
		err = a.fetchRoster(ctx, window, batch)
	case entity.KindFlight:
		err = a.fetchFlights(ctx, window, batch)
	case entity.KindModLog:
		err = a.fetchModLog(ctx, window, batch)
	case entity.KindReference:
		err = a.fetchReference(ctx, batch)
	default:
		return nil, fmt.Errorf("aims: unsupported kind %q", kind)
	}
	if err != nil {
		return nil, err
	}

	for _, rej := range batch.Rejected {
		a.logger.Warn("Skipping malformed AIMS record", "kind", kind, "error", rej.Error())
	}
	a.logger.Info("AIMS fetch completed",
		"kind", kind,
		"from", entity.FormatDate(window.From),
		"to", entity.FormatDate(window.To),
		"accepted", batch.Len(),
		"rejected", len(batch.Rejected))
	return batch, nil
}

func (a *Adapter) crewList(ctx context.Context, window entity.TimeWindow) ([]crewItem, error) {
	params := []param{{"ID", "0"}, {"PrimaryQualify", ""}}
	params = append(params, dateParams("Fm", window.From, "MM", "YY")...)
	params = append(params, dateParams("To", window.To, "MM", "YY")...)
	params = append(params, param{"BaseStr", ""}, param{"ACStr", ""}, param{"PosStr", ""})

	var resp operationResponse[crewListResult]
	if err := a.client.call(ctx, methodCrewList, a.client.cfg.Crew, params, &resp); err != nil {
		return nil, err
	}
	if err := a.client.checkExplanation(methodCrewList, resp.Result.ErrorExplanation); err != nil {
		return nil, err
	}
	return resp.Result.Crew, nil
}

func (a *Adapter) fetchCrew(ctx context.Context, window entity.TimeWindow, batch *entity.Batch) error {
	items, err := a.crewList(ctx, window)
	if err != nil {
		return err
	}
	for i, item := range items {
		crew, perr := MapCrew(i, item, batch.FetchedAt)
		if perr != nil {
			batch.Reject(perr)
			continue
		}
		batch.Crew = append(batch.Crew, crew)
	}
	return nil
}

func (a *Adapter) rosterOf(ctx context.Context, crewID string, window entity.TimeWindow) ([]rosterItem, error) {
	params := []param{{"ID", crewID}}
	params = append(params, dateParams("Fm", window.From, "MM", "YY")...)
	params = append(params, dateParams("To", window.To, "MM", "YY")...)

	var resp operationResponse[rosterResult]
	if err := a.client.call(ctx, methodRoster, a.client.cfg.Crew, params, &resp); err != nil {
		return nil, err
	}
	if err := a.client.checkExplanation(methodRoster, resp.Result.ErrorExplanation); err != nil {
		return nil, err
	}
	return resp.Result.Items, nil
}

func (a *Adapter) fetchRoster(ctx context.Context, window entity.TimeWindow, batch *entity.Batch) error {
	crew, err := a.crewList(ctx, window)
	if err != nil {
		return err
	}

	group := a.rosterPool.NewGroupContext(ctx)
	submitted := 0
	for i, c := range crew {
		crewID := trim(c.ID)
		if crewID == "" || crewID[0] == '*' {
			continue
		}
		submitted++
		group.SubmitErr(func() (crewRoster, error) {
			items, err := a.rosterOf(ctx, crewID, window)
			if err != nil {
				// bad credentials fail every call, so stop the pass
				if errors.Is(err, entity.ErrAuth) || ctx.Err() != nil {
					return crewRoster{}, err
				}
				return crewRoster{index: i, crewID: crewID, err: err}, nil
			}
			return crewRoster{index: i, crewID: crewID, items: items}, nil
		})
	}
	results, err := group.Wait()
	if err != nil {
		return err
	}

	var failed []crewRoster
	for _, r := range results {
		if r.err != nil {
			failed = append(failed, r)
		}
	}
	if submitted > 0 && len(failed) == submitted {
		return fmt.Errorf("aims: roster unavailable for all %d crew: %w", submitted, failed[0].err)
	}
	for _, r := range failed {
		batch.Reject(&entity.ParseError{Kind: entity.KindRoster, Index: r.index, Field: "ID", Reason: "roster unavailable for " + r.crewID})
	}

	index := 0
	for _, r := range results {
		for _, item := range r.items {
			act, perr := MapRoster(index, r.crewID, item, batch.FetchedAt)
			index++
			if perr != nil {
				batch.Reject(perr)
				continue
			}
			batch.Roster = append(batch.Roster, act)
		}
	}
	return nil
}

// fetchFlights queries one day at a time so a wide window stays within the service's limits
func (a *Adapter) fetchFlights(ctx context.Context, window entity.TimeWindow, batch *entity.Batch) error {
	creds := a.client.cfg.Flights
	index := 0
	for _, day := range window.Days() {
		params := dateParams("From", day, "MMonth", "YYYY")
		params = append(params, param{"FromHH", "00"}, param{"FromMMin", "00"})
		params = append(params, dateParams("To", day, "MMonth", "YYYY")...)
		params = append(params, param{"ToHH", "23"}, param{"ToMMin", "59"})

		var resp operationResponse[flightDetailsResult]
		if err := a.client.call(ctx, methodFlights, creds, params, &resp); err != nil {
			return err
		}
		if err := a.client.checkExplanation(methodFlights, resp.Result.ErrorExplanation); err != nil {
			return err
		}
		for _, item := range resp.Result.Flights {
			rec, perr := MapFlight(index, item, batch.FetchedAt)
			index++
			if perr != nil {
				batch.Reject(perr)
				continue
			}
			batch.Flights = append(batch.Flights, rec)
		}
	}
	return nil
}

func (a *Adapter) fetchModLog(ctx context.Context, window entity.TimeWindow, batch *entity.Batch) error {
	params := dateParams("ForBeg", window.From, "MM", "YYYY")
	params = append(params, dateParams("ForEnd", window.To, "MM", "YYYY")...)
	params = append(params, dateParams("OnBeg", window.From, "MM", "YYYY")...)
	params = append(params, dateParams("OnEnd", window.To, "MM", "YYYY")...)
	params = append(params, param{"HHrs", "23"}, param{"MMin", "59"})

	var resp operationResponse[modLogResult]
	if err := a.client.call(ctx, methodModLog, a.client.cfg.Flights, params, &resp); err != nil {
		return err
	}
	if err := a.client.checkExplanation(methodModLog, resp.Result.ErrorExplanation); err != nil {
		return err
	}
	for i, item := range resp.Result.Items {
		entry, perr := MapModLog(i, item, batch.FetchedAt)
		if perr != nil {
			batch.Reject(perr)
			continue
		}
		batch.ModLog = append(batch.ModLog, entry)
	}
	return nil
}

func (a *Adapter) fetchReference(ctx context.Context, batch *entity.Batch) error {
	var aircraft operationResponse[aircraftResult]
	if err := a.client.call(ctx, methodAircraft, a.client.cfg.Crew, nil, &aircraft); err != nil {
		return err
	}
	for i, item := range aircraft.Result.Items {
		ac, perr := MapAircraft(i, item, batch.FetchedAt)
		if perr != nil {
			batch.Reject(perr)
			continue
		}
		batch.Aircraft = append(batch.Aircraft, ac)
	}

	var airports operationResponse[airportResult]
	if err := a.client.call(ctx, methodAirports, a.client.cfg.Crew, nil, &airports); err != nil {
		return err
	}
	for i, item := range airports.Result.Items {
		ap, perr := MapAirport(i, item, batch.FetchedAt)
		if perr != nil {
			batch.Reject(perr)
			continue
		}
		batch.Airports = append(batch.Airports, ap)
	}
	return nil
}

// Probe performs a cheap authenticated call to check the service is reachable
func (a *Adapter) Probe(ctx context.Context) error {
	day := entity.TruncateDay(a.clock.Now().UTC())
	_, err := a.crewList(ctx, entity.NewTimeWindow(day, day))
	return err
}

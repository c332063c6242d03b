package httpapi

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/agroplan/crop-window-planner/internal/agro"
	"github.com/agroplan/crop-window-planner/internal/catalog"
	"github.com/agroplan/crop-window-planner/internal/gdd"
	"github.com/agroplan/crop-window-planner/internal/plan"
	"github.com/agroplan/crop-window-planner/internal/store"
	"github.com/agroplan/crop-window-planner/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, planner *plan.Planner, service *weather.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/fields/:id/weather", func(c *fiber.Ctx) error {
		fieldID := c.Params("id")

		from, to, err := parseRangeQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.GetRange(fieldID, from, to)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) || errors.Is(err, weather.ErrUnknownField) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested field and range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(fiber.Map{
			"fieldId": fieldID,
			"from":    from,
			"to":      to,
			"records": records,
		})
	})

	v1.Get("/fields/:id/candidates", func(c *fiber.Ctx) error {
		var req candidatesQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// One session cache per request; candidate sets are request-scoped.
		cache := plan.NewCandidateCache()
		window := agro.EvaluationWindow{Start: req.From, End: req.To}

		candidates, err := planner.Candidates(c.Context(), c.Params("id"), req.Crop, req.Variety, window, cache)
		if err != nil {
			if errors.Is(err, catalog.ErrCropNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		resp := fiber.Map{
			"fieldId":    c.Params("id"),
			"crop":       req.Crop,
			"variety":    req.Variety,
			"window":     window,
			"candidates": candidates,
		}
		if best, ok := gdd.BestCandidate(candidates); ok {
			resp["best"] = best
		}
		return c.JSON(resp)
	})

	v1.Post("/plan/adjust", func(c *fiber.Ctx) error {
		var req adjustRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		moves, err := req.toMoves()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// Fresh session cache per adjustment request.
		cache := plan.NewCandidateCache()
		results, err := planner.AdjustAllocations(c.Context(), moves, cache)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(fiber.Map{
			"results":    toResultDTOs(results),
			"cacheStats": cache.Stats(),
		})
	})
}

// candidatesQuery holds query parameters for the candidates endpoint.
type candidatesQuery struct {
	Crop    string `validate:"required"`
	Variety string `validate:"required"`
	From    time.Time
	To      time.Time
}

func (q *candidatesQuery) bind(c *fiber.Ctx) error {
	q.Crop = c.Query("crop")
	q.Variety = c.Query("variety")
	if err := validate.Struct(q); err != nil {
		return err
	}

	from, to, err := parseRangeQuery(c)
	if err != nil {
		return err
	}
	q.From, q.To = from, to
	return nil
}

func parseRangeQuery(c *fiber.Ctx) (time.Time, time.Time, error) {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, errors.New("from and to query parameters are required")
	}

	from, err := parseDay(fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDay(toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not precede from")
	}
	return from, to, nil
}

// parseDay tries to parse either a plain date or RFC3339.
func parseDay(s string) (time.Time, error) {
	if d, err := agro.ParseDay(s); err == nil {
		return d, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return agro.Day(ts), nil
	}
	return time.Time{}, errors.New("invalid date format; use YYYY-MM-DD or RFC3339")
}

// adjustRequest is the JSON body of the plan adjustment endpoint.
type adjustRequest struct {
	Moves []moveDTO `json:"moves" validate:"required,min=1,dive"`
}

type moveDTO struct {
	FieldID            string `json:"fieldId" validate:"required"`
	CropID             string `json:"cropId" validate:"required"`
	Variety            string `json:"variety" validate:"required"`
	RequestedStartDate string `json:"requestedStartDate" validate:"required"`
	WindowStart        string `json:"windowStart" validate:"required"`
	WindowEnd          string `json:"windowEnd" validate:"required"`
}

func (r adjustRequest) toMoves() ([]agro.Move, error) {
	moves := make([]agro.Move, 0, len(r.Moves))
	for _, m := range r.Moves {
		start, err := parseDay(m.RequestedStartDate)
		if err != nil {
			return nil, err
		}
		winStart, err := parseDay(m.WindowStart)
		if err != nil {
			return nil, err
		}
		winEnd, err := parseDay(m.WindowEnd)
		if err != nil {
			return nil, err
		}
		if winEnd.Before(winStart) {
			return nil, errors.New("windowEnd must not precede windowStart")
		}

		moves = append(moves, agro.Move{
			FieldID:            m.FieldID,
			CropID:             m.CropID,
			Variety:            m.Variety,
			RequestedStartDate: start,
			Window:             agro.EvaluationWindow{Start: winStart, End: winEnd},
		})
	}
	return moves, nil
}

// moveResultDTO renders a MoveResult with its error flattened to a string.
type moveResultDTO struct {
	Move           agro.Move  `json:"move"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
	AccumulatedGDD float64    `json:"accumulatedGdd"`
	Feasible       bool       `json:"feasible"`
	Error          string     `json:"error,omitempty"`
}

func toResultDTOs(results []agro.MoveResult) []moveResultDTO {
	out := make([]moveResultDTO, 0, len(results))
	for _, r := range results {
		dto := moveResultDTO{
			Move:           r.Move,
			CompletionDate: r.CompletionDate,
			AccumulatedGDD: r.AccumulatedGDD,
			Feasible:       r.Feasible,
		}
		if r.Err != nil {
			dto.Error = r.Err.Error()
		}
		out = append(out, dto)
	}
	return out
}

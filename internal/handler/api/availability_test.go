//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	"venue-booking/internal/domain/calendar"
	"venue-booking/internal/domain/schedule"
	"venue-booking/internal/handler/api"
	"venue-booking/internal/handler/middleware"
	"venue-booking/internal/pkg/errs"
	"venue-booking/internal/usecase/queries"
	"venue-booking/internal/usecase/shared"
	"venue-booking/tests/common/httptest"
	queriesmock "venue-booking/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AvailabilityHandlerTestSuite struct {
	suite.Suite
	router      *gin.Engine
	mockCtrl    *gomock.Controller
	mockQueries *queriesmock.MockAvailabilityQueries
	handler     *api.AvailabilityHandler
}

func (s *AvailabilityHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())

	s.mockCtrl = gomock.NewController(s.T())
	s.mockQueries = queriesmock.NewMockAvailabilityQueries(s.mockCtrl)
	s.handler = api.NewAvailabilityHandler(s.mockQueries)

	s.router.GET("/api/availability", s.handler.Check)
	s.router.GET("/api/slots", s.handler.Slots)
}

func (s *AvailabilityHandlerTestSuite) SetupSubTest() {
	s.SetupTest()
}

func TestAvailabilityHandlerSuite(t *testing.T) {
	suite.Run(t, new(AvailabilityHandlerTestSuite))
}

func blockedTenAM(t *testing.T) *queries.AvailabilityResult {
	t.Helper()
	loc, err := time.LoadLocation("America/Denver")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	res := calendar.NewResolver(loc).Resolve(schedule.MustParseDate("2025-03-10"), []calendar.RawEvent{{
		ID:    "evt-1",
		Start: calendar.EventTime{DateTime: "2025-03-10T10:00:00-06:00"},
		End:   calendar.EventTime{DateTime: "2025-03-10T11:00:00-06:00"},
	}})
	return &queries.AvailabilityResult{Availability: res.Availability}
}

// ================================================================================
// TestCheck
// ================================================================================

func (s *AvailabilityHandlerTestSuite) TestCheck() {
	s.Run("success: returns label to availability map", func() {
		s.mockQueries.EXPECT().Check(gomock.Any(), "2025-03-10").Return(blockedTenAM(s.T()), nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/availability?date=2025-03-10", nil)

		var body map[string]bool
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Len(body, len(schedule.Catalog()))
		s.False(body["10:00 AM"])
		s.True(body["9:00 AM"])
		s.True(body["11:00 AM"])
		s.Empty(rec.Header().Get(middleware.DegradedHeader))
	})

	s.Run("success: fail-open fallback sets degraded header", func() {
		s.mockQueries.EXPECT().Check(gomock.Any(), "2025-03-10").Return(&queries.AvailabilityResult{
			Availability: calendar.AllAvailable(schedule.MustParseDate("2025-03-10")),
			Degraded:     true,
		}, nil)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/availability?date=2025-03-10", nil)

		var body map[string]bool
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		for label, available := range body {
			s.True(available, label)
		}
		httptest.AssertHeaders(s.T(), rec, map[string]string{middleware.DegradedHeader: "true"})
	})

	s.Run("error: 400 on malformed date", func() {
		s.mockQueries.EXPECT().Check(gomock.Any(), "03/10/2025").
			Return(nil, errs.Wrapf(schedule.ErrInvalidDateFormat, "date %q", "03/10/2025"))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/availability?date=03/10/2025", nil)

		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid date format")
	})

	s.Run("error: 503 when calendar unavailable and fallback is closed", func() {
		s.mockQueries.EXPECT().Check(gomock.Any(), "2025-03-10").
			Return(nil, errs.Mark(errs.New("dial tcp: timeout"), shared.ErrCalendarUnavailable))

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/availability?date=2025-03-10", nil)

		httptest.AssertErrorResponse(s.T(), rec, http.StatusServiceUnavailable, "Calendar unavailable")
	})
}

// ================================================================================
// TestSlots
// ================================================================================

func (s *AvailabilityHandlerTestSuite) TestSlots() {
	s.Run("success: catalog in order", func() {
		s.mockQueries.EXPECT().Slots().Return([]queries.SlotView{
			{Label: "6:00 AM", MinuteOfDay: 360},
			{Label: "7:00 AM", MinuteOfDay: 420},
		})

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/slots", nil)

		var body []struct {
			Label       string `json:"label"`
			MinuteOfDay int    `json:"minute_of_day"`
		}
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().Len(body, 2)
		s.Equal("6:00 AM", body[0].Label)
		s.Equal(360, body[0].MinuteOfDay)
		s.Equal("7:00 AM", body[1].Label)
	})
}

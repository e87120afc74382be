package ga4

// Relative dates understood by the Data API.
const (
	Today        = "today"
	SevenDaysAgo = "7daysAgo"
)

// AllTimeStartDate is used as the start of "all time" ranges.
//
// The Data API has no all-time range. GA4 launched in October 2020, so a range
// starting here covers every property in practice. Properties created with
// backfilled data may report earlier days that this range leaves out.
const AllTimeStartDate = "2020-07-01"

// Metric and dimension names used by the built-in reports.
const (
	MetricActiveUsers            = "activeUsers"
	MetricNewUsers               = "newUsers"
	MetricAverageSessionDuration = "averageSessionDuration"

	DimensionDate           = "date"
	DimensionCountry        = "country"
	DimensionCity           = "city"
	DimensionDeviceCategory = "deviceCategory"
	DimensionEventName      = "eventName"
)

// Event names of first interactions on web and app streams.
const (
	EventFirstVisit = "first_visit"
	EventFirstOpen  = "first_open"
)

// GeolocationLimit is the number of city rows returned by GeolocationQuery.
const GeolocationLimit = 50

func lastSevenDays() []DateRange {
	return []DateRange{{StartDate: SevenDaysAgo, EndDate: Today}}
}

// ActiveUsersQuery returns the active users of each of the last seven days.
func ActiveUsersQuery() ReportRequest {
	return ReportRequest{
		DateRanges: lastSevenDays(),
		Dimensions: []Dimension{{Name: DimensionDate}},
		Metrics:    []Metric{{Name: MetricActiveUsers}},
	}
}

// AverageSessionDurationQuery returns the average session duration, in
// seconds, of the last seven days.
func AverageSessionDurationQuery() ReportRequest {
	return ReportRequest{
		DateRanges: lastSevenDays(),
		Metrics:    []Metric{{Name: MetricAverageSessionDuration}},
	}
}

// DeviceCategoryAllTimeQuery returns the active users per device category
// since AllTimeStartDate.
func DeviceCategoryAllTimeQuery() ReportRequest {
	return ReportRequest{
		DateRanges: []DateRange{{StartDate: AllTimeStartDate, EndDate: Today}},
		Dimensions: []Dimension{{Name: DimensionDeviceCategory}},
		Metrics:    []Metric{{Name: MetricActiveUsers}},
	}
}

// GeolocationQuery returns the cities with the most active users in the last
// seven days.
func GeolocationQuery() ReportRequest {
	return ReportRequest{
		DateRanges: lastSevenDays(),
		Dimensions: []Dimension{{Name: DimensionCountry}, {Name: DimensionCity}},
		Metrics:    []Metric{{Name: MetricActiveUsers}},
		OrderBys: []OrderBy{{
			Metric: &MetricOrderBy{MetricName: MetricActiveUsers},
			Desc:   true,
		}},
		Limit: GeolocationLimit,
	}
}

// NewUsersQuery returns the new users of the last seven days.
func NewUsersQuery() ReportRequest {
	return ReportRequest{
		DateRanges: lastSevenDays(),
		Metrics:    []Metric{{Name: MetricNewUsers}},
	}
}

// EventActiveUsersQuery returns the active users of the last seven days that
// triggered the event.
func EventActiveUsersQuery(eventName string) ReportRequest {
	return ReportRequest{
		DateRanges: lastSevenDays(),
		Metrics:    []Metric{{Name: MetricActiveUsers}},
		DimensionFilter: &FilterExpression{
			Filter: &Filter{
				FieldName: DimensionEventName,
				StringFilter: &StringFilter{
					MatchType: MatchExact,
					Value:     eventName,
				},
			},
		},
	}
}

// RealtimeActiveUsersQuery returns the users active in the last 30 minutes.
func RealtimeActiveUsersQuery() ReportRequest {
	return ReportRequest{
		Metrics: []Metric{{Name: MetricActiveUsers}},
	}
}

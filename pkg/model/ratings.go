package model

// CategoryAverages holds per-category rating means over the query period.
type CategoryAverages struct {
	Clarity    float64 `json:"clarity"`
	Usefulness float64 `json:"usefulness"`
	Accuracy   float64 `json:"accuracy"`
	Usability  float64 `json:"usability"`
	Speed      float64 `json:"speed"`
	Design     float64 `json:"design"`
	Overall    float64 `json:"overall"`
	Recommend  float64 `json:"recommend"`
	Price      float64 `json:"price"`
}

// FeedbackEntry is one free-text comment attached to a rating.
type FeedbackEntry struct {
	ID          int    `json:"id"`
	Overall     int    `json:"overall"`
	Feedback    string `json:"feedback"`
	ServiceName string `json:"service_name,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// RatingStats is the aggregate rating view for one period, optionally scoped
// to a single service.
type RatingStats struct {
	PeriodDays     int              `json:"period_days"`
	TotalRatings   int              `json:"total_ratings"`
	Averages       CategoryAverages `json:"averages"`
	NPS            float64          `json:"nps"`
	Distribution   map[int]int      `json:"distribution"`
	RecentFeedback []FeedbackEntry  `json:"recent_feedback"`
}

// RatingTimelinePoint is one day's rating aggregate.
type RatingTimelinePoint struct {
	Date      string  `json:"date"`
	AvgRating float64 `json:"avg_rating"`
	Count     int     `json:"count"`
}

// RatingTimeline is the day-by-day rating series for a period.
type RatingTimeline struct {
	PeriodDays int                   `json:"period_days"`
	DataPoints []RatingTimelinePoint `json:"data_points"`
}

// ServiceRating is one service's rating aggregate.
type ServiceRating struct {
	ServiceName  string  `json:"service_name"`
	TotalRatings int     `json:"total_ratings"`
	AvgRating    float64 `json:"avg_rating"`
}

// ServicesRatings lists per-service rating aggregates for a period.
type ServicesRatings struct {
	PeriodDays int             `json:"period_days"`
	Services   []ServiceRating `json:"services"`
}

// RatingSubmission is the payload for a user-submitted rating. Category
// scores are 1-5 and optional; zero means "not rated". Overall is computed
// client-side from the provided categories when left at zero.
type RatingSubmission struct {
	Clarity     int    `json:"clarity,omitempty"`
	Usefulness  int    `json:"usefulness,omitempty"`
	Accuracy    int    `json:"accuracy,omitempty"`
	Usability   int    `json:"usability,omitempty"`
	Speed       int    `json:"speed,omitempty"`
	Design      int    `json:"design,omitempty"`
	Recommend   int    `json:"recommend,omitempty"`
	Price       int    `json:"price,omitempty"`
	Overall     int    `json:"overall"`
	Feedback    string `json:"feedback,omitempty"`
	SessionID   string `json:"session_id"`
	ServiceName string `json:"service_name,omitempty"`
	PageURL     string `json:"page_url,omitempty"`
}

// CategoryScores returns the six core category scores that feed the overall
// rating, in submission order.
func (r RatingSubmission) CategoryScores() []int {
	return []int{r.Clarity, r.Usefulness, r.Accuracy, r.Usability, r.Speed, r.Design}
}

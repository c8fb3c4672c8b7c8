package models

const (
	// DefaultCancellationHours is the cancellation window used when a room
	// carries no policy of its own.
	DefaultCancellationHours = 24

	// WeekendMarkup multiplies the base rate on Saturday/Sunday nights when
	// no explicit weekend price is configured.
	WeekendMarkup = 1.2

	// DefaultMinNights / DefaultMaxNights bound stay length when a room is
	// seeded without explicit limits.
	DefaultMinNights = 1
	DefaultMaxNights = 30

	// DefaultMaxAdvanceDays bounds how far ahead a booking may start.
	DefaultMaxAdvanceDays = 365

	// DefaultNoShowGraceHours is how long after the check-in date a confirmed
	// booking survives before the sweeper marks it no_show.
	DefaultNoShowGraceHours = 24

	// DefaultCacheTTL is the availability cache lifetime in seconds.
	DefaultCacheTTL = 5 * 60

	// RateLimitRequests / RateLimitWindow bound requests per client window
	// (seconds).
	RateLimitRequests = 60
	RateLimitWindow   = 60
)

package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/appointment"
)

// versionTTL bounds how long an idle day's version key lingers. It only has
// to outlive a single availability fill.
const versionTTL = 24 * time.Hour

// AvailabilityCache stores a doctor's resolved day as JSON under
// availability:{doctor}:{date}. Redis errors are logged and treated as misses.
//
// Every invalidation replaces availability-version:{doctor}:{date} with a
// fresh token. A fill is written only while the token it started from is
// still current.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewAvailabilityCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *AvailabilityCache {
	return &AvailabilityCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func availabilityKey(doctorID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("availability:%s:%s", doctorID, day.Format(time.DateOnly))
}

func versionKey(doctorID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("availability-version:%s:%s", doctorID, day.Format(time.DateOnly))
}

// Get returns the cached day. On a miss it returns the day's version for the
// following Set; an empty version means "never set" and a read failure
// returns ok=false with a version Set will refuse.
func (c *AvailabilityCache) Get(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]appointment.SlotAvailability, string, bool) {
	var data, version *redis.StringCmd
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		data = p.Get(ctx, availabilityKey(doctorID, day))
		version = p.Get(ctx, versionKey(doctorID, day))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.Warn().Err(err).Msg("availability cache read failed")
		return nil, unknownVersion, false
	}

	current, err := version.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, unknownVersion, false
	}

	raw, err := data.Bytes()
	if err != nil {
		return nil, current, false
	}

	var slots []appointment.SlotAvailability
	if err := json.Unmarshal(raw, &slots); err != nil {
		c.logger.Warn().Err(err).Msg("availability cache entry corrupt")
		return nil, current, false
	}
	if slots == nil {
		slots = []appointment.SlotAvailability{}
	}
	return slots, current, true
}

// unknownVersion never matches a stored version, so Set after a failed read is a no-op.
const unknownVersion = "\x00unknown"

// writes ARGV[2] to KEYS[1] only if KEYS[2] still holds ARGV[1]; a missing
// version key compares as ""
var setIfCurrentScript = redis.NewScript(`
local current = redis.call("GET", KEYS[2])
if not current then
  current = ""
end
if current ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *AvailabilityCache) Set(ctx context.Context, doctorID uuid.UUID, day time.Time, version string, slots []appointment.SlotAvailability) {
	if version == unknownVersion {
		return
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}

	keys := []string{availabilityKey(doctorID, day), versionKey(doctorID, day)}
	written, err := setIfCurrentScript.Run(ctx, c.client, keys, version, raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn().Err(err).Msg("availability cache write failed")
		return
	}
	if written == 0 {
		c.logger.Debug().
			Str("doctor_id", doctorID.String()).
			Str("date", day.Format(time.DateOnly)).
			Msg("availability changed during fill, not cached")
	}
}

func (c *AvailabilityCache) Invalidate(ctx context.Context, doctorID uuid.UUID, day time.Time) {
	c.invalidate(ctx, []time.Time{day}, doctorID)
}

// WeekChanged drops all seven cached days of a replaced week.
func (c *AvailabilityCache) WeekChanged(ctx context.Context, doctorID uuid.UUID, weekStart time.Time) {
	c.invalidate(ctx, weekDays(weekStart), doctorID)
}

func (c *AvailabilityCache) invalidate(ctx context.Context, days []time.Time, doctorID uuid.UUID) {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, day := range days {
			p.Set(ctx, versionKey(doctorID, day), uuid.NewString(), versionTTL)
			p.Del(ctx, availabilityKey(doctorID, day))
		}
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("availability cache invalidate failed")
	}
}

func weekDays(weekStart time.Time) []time.Time {
	days := make([]time.Time, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, weekStart.AddDate(0, 0, i))
	}
	return days
}

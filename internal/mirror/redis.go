// Package mirror copies every fetched live stats snapshot into Redis so other
// processes can read the latest values without polling the site themselves.
package mirror

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jpalmerr/livecounter"
	"github.com/redis/rueidis"
)

const (
	defaultKey          = "livecounter:stats"
	defaultWriteTimeout = 2 * time.Second

	fieldFetchedAt  = "fetched_at"
	fieldServerTime = "server_time"
)

// Options configures a [Redis] mirror.
type Options struct {
	// Addresses are the Redis host:port pairs to connect to.
	Addresses []string

	Password string
	DB       int
	TLS      bool

	// Key is the hash the snapshot is written to. Defaults to "livecounter:stats".
	Key string

	// TTL expires the hash when the counter stops writing. Zero keeps it forever.
	TTL time.Duration
}

// Redis writes snapshots into a Redis hash.
//
// Each snapshot becomes one HSET of the fields it carries plus fetched_at
// (and server_time when the response had one), pipelined with an EXPIRE when
// a TTL is set. Fields missing from a snapshot keep their previous value in
// the hash, matching the widget.
type Redis struct {
	client rueidis.Client
	key    string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New connects to Redis.
func New(opts Options, logger *slog.Logger) (*Redis, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Addresses) == 0 {
		return nil, fmt.Errorf("redis mirror: no addresses")
	}

	clientOption := rueidis.ClientOption{
		InitAddress: opts.Addresses,
		Password:    opts.Password,
		SelectDB:    opts.DB,
	}
	if opts.TLS {
		clientOption.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := rueidis.NewClient(clientOption)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis mirror: %w", err)
	}

	key := opts.Key
	if key == "" {
		key = defaultKey
	}
	return &Redis{
		client: client,
		key:    key,
		ttl:    opts.TTL,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Key returns the hash key snapshots are written to.
func (r *Redis) Key() string {
	return r.key
}

// Write stores one snapshot.
func (r *Redis) Write(ctx context.Context, s livecounter.Snapshot) error {
	pairs := hashFields(s, r.now())

	hset := r.client.B().Hset().Key(r.key).FieldValue()
	for i := 0; i < len(pairs); i += 2 {
		hset = hset.FieldValue(pairs[i], pairs[i+1])
	}

	cmds := rueidis.Commands{hset.Build()}
	if r.ttl > 0 {
		cmds = append(cmds, r.client.B().Expire().Key(r.key).Seconds(int64(r.ttl.Seconds())).Build())
	}

	for _, resp := range r.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("failed to mirror snapshot to %s: %w", r.key, err)
		}
	}
	return nil
}

// Read returns the mirrored hash, for diagnostics and tests.
func (r *Redis) Read(ctx context.Context) (map[string]string, error) {
	values, err := r.client.Do(ctx, r.client.B().Hgetall().Key(r.key).Build()).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror %s: %w", r.key, err)
	}
	return values, nil
}

// Callback adapts the mirror to livecounter.WithSnapshotCallback. Each write
// is bounded by a short timeout and failures are logged, never propagated.
func (r *Redis) Callback() func(livecounter.Snapshot) {
	return func(s livecounter.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
		defer cancel()

		if err := r.Write(ctx, s); err != nil {
			r.logger.Warn("redis mirror write failed", "key", r.key, "error", err.Error())
			return
		}
		r.logger.Debug("snapshot mirrored", "key", r.key, "fields", len(s.Values))
	}
}

// Close releases the connection pool.
func (r *Redis) Close() {
	r.client.Close()
}

// hashFields flattens a snapshot into HSET field/value pairs in widget order.
func hashFields(s livecounter.Snapshot, fetchedAt time.Time) []string {
	pairs := make([]string, 0, 2*(len(s.Values)+2))
	for _, f := range livecounter.Fields() {
		if v, ok := s.Values[f]; ok {
			pairs = append(pairs, f.String(), v)
		}
	}
	pairs = append(pairs, fieldFetchedAt, strconv.FormatInt(fetchedAt.Unix(), 10))
	if !s.ServerTime.IsZero() {
		pairs = append(pairs, fieldServerTime, s.ServerTime.UTC().Format(time.RFC3339))
	}
	return pairs
}

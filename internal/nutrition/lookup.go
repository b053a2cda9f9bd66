// Package nutrition resolves per-100g macro profiles for foods, asking the
// language model and caching results in Redis when a pool is configured.
package nutrition

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gomodule/redigo/redis"
	"github.com/rs/zerolog/log"

	"github.com/lifebit/noteagent/internal/llm"
)

// Facts is a per-100g macro profile.
type Facts struct {
	Calories float64 `json:"calories"`
	Carbs    float64 `json:"carbs"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
}

// FallbackFacts is used when the model cannot produce a usable profile.
// A save never fails on nutrition lookup.
var FallbackFacts = Facts{Calories: 200, Carbs: 30, Protein: 10, Fat: 5}

const (
	cacheKeyPrefix = "noteagent:nutrition:"
	cacheTTL       = 7 * 24 * time.Hour
)

// Lookup resolves macro profiles for food names.
type Lookup struct {
	client llm.Client
	pool   *redis.Pool
}

// NewLookup creates a lookup. The pool is optional; nil disables caching.
func NewLookup(client llm.Client, pool *redis.Pool) *Lookup {
	return &Lookup{client: client, pool: pool}
}

// Facts returns the per-100g macro profile for a food name along with the
// source, "lookup" when the model answered or "fallback" otherwise.
func (l *Lookup) Facts(ctx context.Context, foodName string) (Facts, string) {
	foodName = strings.TrimSpace(foodName)
	if foodName == "" {
		return FallbackFacts, "fallback"
	}

	if facts, ok := l.fromCache(foodName); ok {
		return facts, "lookup"
	}

	facts, err := l.ask(ctx, foodName)
	if err != nil {
		log.Warn().Err(err).Str("food", foodName).Msg("nutrition lookup failed, using fallback")
		return FallbackFacts, "fallback"
	}

	l.toCache(foodName, facts)
	return facts, "lookup"
}

func (l *Lookup) ask(ctx context.Context, foodName string) (Facts, error) {
	if l.client == nil {
		return Facts{}, fmt.Errorf("no model client configured")
	}

	reply, err := l.client.Chat(ctx, llm.BuildNutritionPrompt(foodName), []llm.Message{
		{Role: "user", Content: foodName},
	})
	if err != nil {
		return Facts{}, fmt.Errorf("ask model: %w", err)
	}

	raw := llm.FirstJSONObject(reply)
	if raw == "" {
		return Facts{}, fmt.Errorf("no JSON object in reply")
	}

	var facts Facts
	if err := json.Unmarshal([]byte(raw), &facts); err != nil {
		return Facts{}, fmt.Errorf("decode reply: %w", err)
	}
	if facts.Calories <= 0 || facts.Calories > 900 {
		return Facts{}, fmt.Errorf("implausible calories %.1f for %q", facts.Calories, foodName)
	}
	if facts.Carbs < 0 || facts.Protein < 0 || facts.Fat < 0 {
		return Facts{}, fmt.Errorf("negative macros for %q", foodName)
	}
	return facts, nil
}

func (l *Lookup) fromCache(foodName string) (Facts, bool) {
	if l.pool == nil {
		return Facts{}, false
	}

	conn := l.pool.Get()
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("GET", cacheKeyPrefix+foodName))
	if err != nil {
		if err != redis.ErrNil {
			log.Debug().Err(err).Str("food", foodName).Msg("nutrition cache read failed")
		}
		return Facts{}, false
	}

	var facts Facts
	if err := json.Unmarshal(raw, &facts); err != nil {
		return Facts{}, false
	}
	return facts, true
}

func (l *Lookup) toCache(foodName string, facts Facts) {
	if l.pool == nil {
		return
	}

	raw, err := json.Marshal(facts)
	if err != nil {
		return
	}

	conn := l.pool.Get()
	defer conn.Close()

	if _, err := conn.Do("SET", cacheKeyPrefix+foodName, raw, "EX", int(cacheTTL.Seconds())); err != nil {
		log.Debug().Err(err).Str("food", foodName).Msg("nutrition cache write failed")
	}
}

// NewPool creates a Redis connection pool for the given address. Returns nil
// when addr is empty so callers can pass configuration through unchanged.
func NewPool(addr string) *redis.Pool {
	if addr == "" {
		return nil
	}
	return &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 240 * time.Second,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialContext(ctx, "tcp", addr)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// Package purge deletes messages matching a filter from a channel's history,
// examining at most a fixed number of messages per run.
package purge

import (
	"context"
	"errors"
	"io"

	"github.com/keshon/scrims-bot/pkg/throttle"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// DefaultMaxScan is used when the caller gives no bound.
const DefaultMaxScan = 50

// Deleter removes a single message.
type Deleter interface {
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
}

// Report counts what a run did. Scanned is the number of retrieval attempts,
// Skipped the attempts that failed, Failed the deletes that failed.
type Report struct {
	Scanned int
	Skipped int
	Matched int
	Deleted int
	Failed  int
}

// Engine runs bounded scans. Deletes are paced by the limiter when one is set.
type Engine struct {
	deleter Deleter
	limiter *throttle.AdaptiveLimiter
}

// NewEngine returns an engine deleting through d. lim may be nil.
func NewEngine(d Deleter, lim *throttle.AdaptiveLimiter) *Engine {
	return &Engine{deleter: d, limiter: lim}
}

// Run scans up to maxScan messages from h, deleting those that match f. The
// bound limits messages examined, not messages deleted. Fetch and delete
// failures are skipped; Run itself cannot fail.
func (e *Engine) Run(ctx context.Context, h History, f Filter, maxScan int) Report {
	if maxScan <= 0 {
		maxScan = DefaultMaxScan
	}

	var r Report
	for r.Scanned < maxScan {
		msg, err := h.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		r.Scanned++
		if err != nil {
			r.Skipped++
			log.Debug().Err(err).Msg("purge: skipping unreadable message")
			continue
		}
		if !f.Match(msg) {
			continue
		}
		r.Matched++
		if e.delete(ctx, msg) {
			r.Deleted++
		} else {
			r.Failed++
		}
	}
	return r
}

func (e *Engine) delete(ctx context.Context, msg *discordgo.Message) bool {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return false
		}
	}
	err := e.deleter.ChannelMessageDelete(msg.ChannelID, msg.ID)
	if e.limiter != nil {
		e.limiter.Observe(err)
	}
	if err != nil {
		log.Debug().Err(err).Str("channel", msg.ChannelID).Str("message", msg.ID).Msg("purge: delete failed")
		return false
	}
	return true
}

// RESTClassifier reports Discord REST errors that ask the client to slow down.
func RESTClassifier(err error) bool {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		code := rest.Response.StatusCode
		return code == 429 || code >= 500
	}
	return throttle.DefaultClassifier(err)
}

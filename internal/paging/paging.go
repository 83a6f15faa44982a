// Package paging splits an ordered result set into fixed-size embed pages. Page
// one finalizes a deferred response, later pages go out as follow-ups in order.
package paging

import (
	"fmt"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	embed "github.com/clinet/discordgo-embed"
)

// PageSize is the number of items per page.
const PageSize = 10

// Discord embed limits. Lengths are checked in bytes, which never undercounts
// characters. EmbedLimit is the current total cap, above the library's own.
const (
	EmbedLimit      = 6000
	FieldLimit      = embed.EmbedLimitField
	FieldNameLimit  = embed.EmbedLimitFieldName
	FieldValueLimit = embed.EmbedLimitFieldValue
)

// Field is one rendered item.
type Field struct {
	Name  string
	Value string
}

// Responder is the second half of a deferred response.
type Responder interface {
	Finalize(embeds ...*discordgo.MessageEmbed) error
	FollowUp(embeds ...*discordgo.MessageEmbed) error
}

// Options tune rendering. Empty is sent as the only response when there is
// nothing to page. Header is the description of the first page.
type Options struct {
	Size   int
	Color  int
	Header string
	Empty  *discordgo.MessageEmbed
}

// PageCount returns how many responses n items produce. Zero items still
// produce one ("no results") response.
func PageCount(n, size int) int {
	if size <= 0 {
		size = PageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Split chunks items into consecutive pages of at most size.
func Split[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = PageSize
	}
	pages := make([][]T, 0, PageCount(len(items), size))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		pages = append(pages, items[start:end])
	}
	return pages
}

// Title is the heading of page k out of n.
func Title(k, n int) string {
	return fmt.Sprintf("Page %d of %d", k, n)
}

// Send delivers fields through r. Writes are sequential; the first failure
// stops delivery and earlier pages stay sent.
func Send(r Responder, fields []Field, opts Options) error {
	if len(fields) == 0 {
		empty := opts.Empty
		if empty == nil {
			empty = embed.NewEmbed().SetTitle("No results").SetColor(opts.Color).MessageEmbed
		}
		return r.Finalize(empty)
	}

	size := opts.Size
	if size <= 0 {
		size = PageSize
	}
	pages := Split(fields, min(size, FieldLimit))
	for k, page := range pages {
		header := ""
		if k == 0 {
			header = opts.Header
		}
		e := render(page, Title(k+1, len(pages)), header, opts.Color)
		var err error
		if k == 0 {
			err = r.Finalize(e)
		} else {
			err = r.FollowUp(e)
		}
		if err != nil {
			return fmt.Errorf("send %s: %w", Title(k+1, len(pages)), err)
		}
	}
	return nil
}

// render builds one page. Values are shortened so the page fits in a single
// embed: no value is split into extra fields and the total stays under EmbedLimit.
func render(page []Field, title, header string, color int) *discordgo.MessageEmbed {
	e := embed.NewEmbed().SetTitle(title).SetColor(color)
	if header != "" {
		e.SetDescription(header)
	}

	used := len(title) + len(header)
	names := make([]string, len(page))
	for i, f := range page {
		names[i] = Truncate(f.Name, FieldNameLimit)
		used += len(names[i])
	}
	budget := FieldValueLimit
	if len(page) > 0 {
		budget = min(budget, (EmbedLimit-used)/len(page))
	}
	for i, f := range page {
		e.AddField(names[i], Truncate(f.Value, budget))
	}
	return e.MessageEmbed
}

// Truncate shortens s to at most n bytes on a rune boundary, marking the cut
// with an ellipsis.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	const ellipsis = "…"
	if n <= len(ellipsis) {
		return ""
	}
	cut := n - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}

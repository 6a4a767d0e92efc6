// Package render turns a widget view into an HTML fragment.
package render

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"videocomments/pkg/models"
	"videocomments/pkg/widget"
)

const dateLayout = "Jan 2, 2006"

// CommentRenderer renders one comment. The widget passes every comment to it
// unchanged.
type CommentRenderer func(c models.Comment) templ.Component

// Comment is the default CommentRenderer.
func Comment(c models.Comment) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.write(`<div class="comment">`)
		if !c.CreatedAt.IsZero() {
			ew.write(`<span class="comment-date">`, templ.EscapeString(c.CreatedAt.Format(dateLayout)), `</span>`)
		}
		ew.write(`<p class="comment-text">`, templ.EscapeString(c.Desc), `</p>`)
		ew.write(`</div>`)
		return ew.err
	})
}

// Widget renders the compose box followed by the comment list. A nil item
// renderer falls back to Comment.
func Widget(v widget.View, item CommentRenderer) templ.Component {
	if item == nil {
		item = Comment
	}

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.write(`<div id="comments-widget" class="comments" data-video-id="`, templ.EscapeString(v.VideoID), `">`)

		ew.write(`<form class="new-comment" hx-post="/widget/submit" hx-target="#comments-widget" hx-swap="outerHTML">`)
		ew.write(`<img class="avatar" alt="" src="`, templ.EscapeString(string(templ.URL(v.Avatar))), `">`)
		ew.write(`<input type="text" name="desc" placeholder="`, templ.EscapeString(v.Placeholder),
			`" value="`, templ.EscapeString(v.Input), `">`)
		ew.write(`<input type="hidden" name="trigger" value="click">`)
		ew.write(`<button type="submit">`, templ.EscapeString(v.ButtonLabel), `</button>`)
		ew.write(`</form>`)

		for _, it := range v.Items {
			ew.write(`<div class="comment-item" data-key="`, templ.EscapeString(it.Key), `">`)
			if ew.err == nil {
				ew.err = item(it.Comment).Render(ctx, w)
			}
			ew.write(`</div>`)
		}

		ew.write(`</div>`)
		return ew.err
	})
}

// errWriter stops writing after the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) write(parts ...string) {
	for _, p := range parts {
		if ew.err != nil {
			return
		}
		_, ew.err = io.WriteString(ew.w, p)
	}
}

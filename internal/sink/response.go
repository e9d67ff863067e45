package sink

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Response streams a document as an HTTP response, either inline (print
// view) or as a download.
type Response struct {
	w          http.ResponseWriter
	attachment bool
}

func NewResponse(w http.ResponseWriter, attachment bool) *Response {
	return &Response{w: w, attachment: attachment}
}

func (r *Response) Send(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return deviceErr("response", err)
	}
	disposition := "inline"
	if r.attachment {
		disposition = "attachment"
	}
	r.w.Header().Set("Content-Type", doc.ContentType)
	r.w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, doc.Name))
	r.w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	r.w.WriteHeader(http.StatusOK)
	if _, err := r.w.Write(doc.Body); err != nil {
		return deviceErr("response", err)
	}
	return nil
}

package testutil

import (
	"net/http"

	id "sigcerh/pkg/domain"
	"sigcerh/pkg/requestcontext"
)

// WithActor places an acting identity on the request context, as the actor
// middleware does for requests carrying actor headers.
func WithActor(req *http.Request, actor, role string) *http.Request {
	ctx := requestcontext.WithActor(req.Context(), id.ActorID(actor), role)
	return req.WithContext(ctx)
}

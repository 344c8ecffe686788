package server

import (
	"github.com/nhdewitt/httpdemo/internal/request"
	"github.com/nhdewitt/httpdemo/internal/response"
)

// Handler writes a complete response for req. A returned error means the
// request failed; if nothing has been written yet the server answers with
// its own 500.
type Handler func(w *response.Writer, req *request.Request) error

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/koustreak/biconnector/internal/connector"
	"github.com/koustreak/biconnector/internal/database"
	"github.com/koustreak/biconnector/internal/dialect"
	"github.com/koustreak/biconnector/internal/errs"
	"github.com/koustreak/biconnector/internal/query"
)

// requestBody is the JSON bag the platform posts with every action.
type requestBody struct {
	Connection   json.RawMessage `json:"connection"`
	SearchString string          `json:"searchString"`
	Table        string          `json:"table"`
	Select       []string        `json:"select"`
	Filter       json.RawMessage `json:"filter"`
	Limit        flexInt         `json:"limit"`
}

// flexInt decodes a JSON number or a numeric string. Anything else,
// including a fractional number, reads as 0.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexInt(v)
	return nil
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	action := q.Get("action")

	params, err := s.decodeParams(w, r, action, q.Get("connection_type"))
	if err != nil {
		s.log.WarnWith("rejected request", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
		writeJSON(w, http.StatusBadRequest, connector.ErrorBody{Error: err.Error()})
		return
	}

	resp := s.svc.Dispatch(r.Context(), action, params)
	writeJSON(w, resp.Status, resp.Body)
}

func (s *Server) decodeParams(w http.ResponseWriter, r *http.Request, action, connectionType string) (connector.Params, error) {
	var data []byte
	if r.Body != nil {
		var err error
		data, err = io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return connector.Params{}, errors.New("Request body too large")
			}
			return connector.Params{}, errors.New("Invalid request body: " + err.Error())
		}
	}
	return ParseRequest(action, connectionType, data)
}

// ParseRequest turns the query parameters and JSON body of one platform
// request into connector parameters. For the four known actions it
// requires a non-empty connection object and a supported connection type.
// Unknown actions are left to the connector. Every error it returns is a
// client error.
func ParseRequest(action, connectionType string, data []byte) (connector.Params, error) {
	var p connector.Params

	var body requestBody
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &body); err != nil {
			return p, errors.New("Invalid request body: " + err.Error())
		}
	}
	if !connector.IsKnownAction(action) {
		return p, nil
	}

	if !isObject(body.Connection) {
		return p, errors.New("Connection parameters are required for action: " + action)
	}

	connType := database.Dialect(strings.ToLower(strings.TrimSpace(connectionType)))
	if _, err := dialect.Lookup(connType); err != nil || connType == "" {
		return p, fmt.Errorf("Valid connection_type (%s) is required for action: %s",
			strings.Join(dialect.Names(), " or "), action)
	}

	var d database.Descriptor
	if err := json.Unmarshal(body.Connection, &d); err != nil {
		return p, errors.New("Invalid connection parameters: " + err.Error())
	}
	d.Dialect = connType

	filters, err := query.DecodeFilters(body.Filter)
	if err != nil {
		return p, errors.New("Invalid filter: " + errs.Message(err))
	}

	limit := int(body.Limit)
	if limit == 0 {
		limit = query.DefaultLimit
	}

	return connector.Params{
		Connection:   &d,
		SearchString: body.SearchString,
		Table:        body.Table,
		Select:       body.Select,
		Filter:       filters,
		Limit:        limit,
	}, nil
}

// isObject reports whether raw is a non-empty JSON object.
func isObject(raw json.RawMessage) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	return len(m) > 0
}

package server

import (
	"github.com/matst80/slask-filterset/pkg/filterset"
	"github.com/matst80/slask-filterset/pkg/types"
)

// CreateSessionRequest is decoded from the query of POST /sessions.
type CreateSessionRequest struct {
	FilterSet  string           `schema:"filterset"`
	SearchType types.SearchType `schema:"type"`
	Href       string           `schema:"href"`
	Title      string           `schema:"title"`
}

type SelectRequest struct {
	Index     int  `schema:"index,required"`
	Exclusive bool `schema:"exclusive"`
}

type PresetsRequest struct {
	SearchType types.SearchType `schema:"type"`
}

type BlockRequest struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

type TitleRequest struct {
	Title string `json:"title"`
}

// SessionView is the controller view of one session.
type SessionView struct {
	Id string `json:"id"`
	filterset.View
}

type BlockResponse struct {
	SessionView
	Index int `json:"index"`
}

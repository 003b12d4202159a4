package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/schema"
	"github.com/matst80/slask-filterset/pkg/common"
	"github.com/matst80/slask-filterset/pkg/common/jsoncompat"
	"github.com/matst80/slask-filterset/pkg/filterset"
	"github.com/matst80/slask-filterset/pkg/storage"
)

const maxBodySize = 1 << 20

func decodeQuery(r *http.Request, dst any) error {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		return common.WithStatus(http.StatusBadRequest, err)
	}
	return nil
}

func decodeBody(r *http.Request, dst any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return common.WithStatus(http.StatusBadRequest, err)
	}
	if err = jsoncompat.Unmarshal(data, dst); err != nil {
		return common.WithStatus(http.StatusBadRequest, err)
	}
	return nil
}

func pathIndex(r *http.Request) (int, error) {
	raw := r.PathValue("index")
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return -1, common.WithStatus(http.StatusBadRequest, fmt.Errorf("invalid block index %q", raw))
	}
	return idx, nil
}

// statusOf maps domain errors to the http status they are reported with.
func statusOf(err error) error {
	if err == nil {
		return nil
	}
	var se *common.StatusError
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return common.WithStatus(http.StatusNotFound, err)
	case errors.Is(err, filterset.ErrIndexOutOfRange), errors.Is(err, filterset.ErrNoBlocks):
		return common.WithStatus(http.StatusBadRequest, err)
	case errors.Is(err, filterset.ErrLastBlock):
		return common.WithStatus(http.StatusConflict, err)
	case errors.Is(err, filterset.ErrNoSaver), errors.Is(err, filterset.ErrNoCounter):
		return common.WithStatus(http.StatusNotImplemented, err)
	}
	return err
}

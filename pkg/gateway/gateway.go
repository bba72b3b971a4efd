package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/runtime"
	"github.com/grpc-ecosystem/grpc-gateway/utilities"
)

// HeightHeader carries the block height a response was read at
const HeightHeader = "X-Cosmos-Block-Height"

// StoreQuerier reads a raw value from a module store.
// client.Context.QueryStore satisfies it.
type StoreQuerier func(key []byte, storeName string) ([]byte, int64, error)

// KeyFunc derives a store key from the route's path parameters
type KeyFunc func(params map[string]string) ([]byte, error)

// Pattern compiles a path template such as /hifi/yieldpool/v1/pools/{pool_id}
// into a gateway pattern. Segments in braces bind a path parameter.
func Pattern(template string) runtime.Pattern {
	var (
		ops  []int
		pool []string
	)
	for _, seg := range strings.Split(strings.Trim(template, "/"), "/") {
		pool = append(pool, strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}"))
		idx := len(pool) - 1
		if strings.HasPrefix(seg, "{") {
			ops = append(ops,
				int(utilities.OpPush), 0,
				int(utilities.OpConcatN), 1,
				int(utilities.OpCapture), idx,
			)
			continue
		}
		ops = append(ops, int(utilities.OpLitPush), idx)
	}
	return runtime.MustPattern(runtime.NewPattern(1, ops, pool, "", runtime.AssumeColonVerbOpt(false)))
}

// RegisterStoreRoute serves GET requests on template with the JSON value a
// keeper stored under the key derived from the path
func RegisterStoreRoute(mux *runtime.ServeMux, template, storeName string, query StoreQuerier, key KeyFunc) {
	mux.Handle(http.MethodGet, Pattern(template), func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		k, err := key(params)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		bz, height, err := query(k, storeName)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		if len(bz) == 0 {
			writeError(w, http.StatusNotFound, fmt.Errorf("nothing stored at %s", r.URL.Path))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(HeightHeader, strconv.FormatInt(height, 10))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(bz)
	})
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

package twirp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vmg/twirp"
)

func TestClientURLJoin(t *testing.T) {
	t.Parallel()

	roots := []string{"http://host", "http://host/", "http://host///"}
	paths := []string{"/twirp/x.Svc/Do", "twirp/x.Svc/Do", "//twirp/x.Svc/Do"}

	for _, root := range roots {
		for _, path := range paths {
			c := twirp.NewClient(nil, root)
			assert.Equal(t, "http://host/twirp/x.Svc/Do", c.URL(path), "root=%q path=%q", root, path)
		}
	}
}

func TestCallSendsProtobufPOST(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.Equal(http.MethodPost, r.Method)
		a.Equal("/twirp/x.Svc/Do", r.URL.Path)
		a.Equal(twirp.ContentTypeProtobuf, r.Header.Get("Content-Type"))
		a.Equal("v", r.Header.Get("X-Extra"))

		res, err := twirp.EncodeResponse(twirp.NewResponse(wrapperspb.Int32(7)))
		require.NoError(t, err)
		require.NoError(t, twirp.WriteResponse(w, res))
	}))
	defer ts.Close()

	client := twirp.NewClient(ts.Client(), ts.URL+"/", twirp.WithClientLogger(zaptest.NewLogger(t)))
	req := twirp.NewRequest(wrapperspb.Int32(0))
	req.Header.Set("X-Extra", "v")

	res, err := twirp.Call[wrapperspb.Int32Value](context.Background(), client, "twirp/x.Svc/Do", req)
	require.NoError(t, err)
	a.Equal(http.StatusOK, res.StatusCode)
	a.EqualValues(7, res.Body.GetValue())
}

func TestCallDecodesErrorResponse(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		twirp.NewError(http.StatusForbidden, "forbidden", "no").WriteHTTP(w)
	}))
	defer ts.Close()

	client := twirp.NewClient(ts.Client(), ts.URL)
	_, err := twirp.Call[wrapperspb.Int32Value](context.Background(), client, "/twirp/x.Svc/Do", twirp.NewRequest(wrapperspb.Int32(0)))
	require.Error(t, err)

	twerr, ok := twirp.RootError(err).(*twirp.Error)
	require.True(t, ok)
	a.Equal(http.StatusForbidden, twerr.StatusCode)
	a.Equal("forbidden", twerr.Code)
	a.Equal("no", twerr.Msg)
}

func TestCallTransportError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client := twirp.NewClient(&http.Client{}, ts.URL)
	ts.Close()

	_, err := twirp.Call[wrapperspb.Int32Value](context.Background(), client, "/twirp/x.Svc/Do", twirp.NewRequest(wrapperspb.Int32(0)))
	require.Error(t, err)

	var terr *twirp.TransportError
	assert.ErrorAs(t, err, &terr)
}

package login

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

const callbackPath = "/callback"

type callbackResult struct {
	code string
	err  error
}

// callbackServer receives the OAuth redirect on localhost.
type callbackServer struct {
	server *http.Server
	result chan callbackResult
}

func listenForCallback(port int, state string) (*callbackServer, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, err
	}
	return serveCallback(ln, state), nil
}

func serveCallback(ln net.Listener, state string) *callbackServer {
	cb := &callbackServer{result: make(chan callbackResult, 1)}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("authorization denied: %s %s",
				q.Get("error"), q.Get("error_description"))
		case q.Get("state") != state:
			res.err = errors.New("state mismatch in redirect")
		case q.Get("code") == "":
			res.err = errors.New("redirect carries no authorization code")
		default:
			res.code = q.Get("code")
		}

		if res.err != nil {
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Signed in. You can close this window.")
		}

		select {
		case cb.result <- res:
		default:
		}
	})

	cb.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go cb.server.Serve(ln)

	return cb
}

// Wait returns the authorization code of the first redirect.
func (cb *callbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-cb.result:
		return res.code, res.err
	}
}

func (cb *callbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return cb.server.Shutdown(ctx)
}

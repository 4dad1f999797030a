package preview

import (
	"bytes"
	"net/http"
	"strings"
)

const (
	scriptTag     = `<script src="/__livereload.js"></script>`
	maxInjectSize = 2 << 20
)

// injectLiveReload adds the live-reload script to HTML pages served by next.
func injectLiveReload(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p != "/" && !strings.HasSuffix(p, "/") && !strings.HasSuffix(p, ".html") {
			next.ServeHTTP(w, r)
			return
		}
		inj := &injector{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// injector buffers an HTML response so the script can be inserted before
// </body>. Non-HTML and oversized responses pass through untouched.
type injector struct {
	http.ResponseWriter
	status      int
	buf         []byte
	buffering   bool
	passthrough bool
	wroteHeader bool
}

func (i *injector) WriteHeader(code int) {
	i.status = code
	if i.passthrough {
		i.ResponseWriter.WriteHeader(code)
		i.wroteHeader = true
	}
}

func (i *injector) Write(data []byte) (int, error) {
	if !i.passthrough && !i.buffering {
		ct := i.Header().Get("Content-Type")
		if ct != "" && !strings.Contains(ct, "text/html") {
			i.startPassthrough()
			return i.ResponseWriter.Write(data)
		}
		i.buffering = true
	}
	if i.passthrough {
		return i.ResponseWriter.Write(data)
	}

	if len(i.buf)+len(data) > maxInjectSize {
		i.startPassthrough()
		if len(i.buf) > 0 {
			if _, err := i.ResponseWriter.Write(i.buf); err != nil {
				return 0, err
			}
			i.buf = nil
		}
		return i.ResponseWriter.Write(data)
	}
	i.buf = append(i.buf, data...)
	return len(data), nil
}

func (i *injector) startPassthrough() {
	i.passthrough = true
	i.Header().Del("Content-Length")
	i.ResponseWriter.WriteHeader(i.status)
	i.wroteHeader = true
}

func (i *injector) finalize() {
	if i.passthrough {
		return
	}
	if len(i.buf) == 0 {
		if !i.wroteHeader {
			i.ResponseWriter.WriteHeader(i.status)
		}
		return
	}

	out := injectScript(i.buf)
	i.Header().Del("Content-Length")
	i.ResponseWriter.WriteHeader(i.status)
	_, _ = i.ResponseWriter.Write(out)
}

// injectScript inserts the script tag before the last </body>, or appends
// it when the page has none.
func injectScript(page []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if idx < 0 {
		return append(append([]byte{}, page...), scriptTag...)
	}
	out := make([]byte, 0, len(page)+len(scriptTag))
	out = append(out, page[:idx]...)
	out = append(out, scriptTag...)
	return append(out, page[idx:]...)
}

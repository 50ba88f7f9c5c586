package web

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	PageIndex      = "index.html"
	PageLogin      = "login.html"
	PageSubmitInfo = "submit-info.html"
)

// Pages supplies the static markup of the web UI.
type Pages interface {
	Page(name string) ([]byte, error)
}

// FilePages reads pages from a directory and falls back to minimal
// built-in markup for the ones it does not find.
type FilePages struct {
	Dir string
}

func (p FilePages) Page(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(p.Dir, name))
	if err == nil {
		return data, nil
	}
	if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "reading page %s", name)
	}

	if fallback, ok := defaultPages[name]; ok {
		return []byte(fallback), nil
	}
	return nil, errors.Errorf("page %s not found", name)
}

var defaultPages = map[string]string{
	PageIndex: `<!DOCTYPE html>
<html><head><title>Peer Chat</title></head>
<body><h1>Peer Chat</h1><p>You are logged in.</p></body></html>
`,
	PageLogin: `<!DOCTYPE html>
<html><head><title>Login</title></head>
<body>
<form method="POST" action="/login">
<input name="username" placeholder="username">
<input name="password" type="password" placeholder="password">
<button type="submit">Login</button>
</form>
<p><a href="/submit-info">Create an account</a></p>
</body></html>
`,
	PageSubmitInfo: `<!DOCTYPE html>
<html><head><title>Register</title></head>
<body>
<form method="POST" action="/submit-info">
<input name="username" placeholder="username">
<input name="password" type="password" placeholder="password">
<button type="submit">Register</button>
</form>
</body></html>
`,
}

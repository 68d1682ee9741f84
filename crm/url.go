package crm

import (
	"strconv"
	"strings"
)

const (
	DefaultScheme    = "https"
	DefaultHost      = "crm.zoho.com"
	DefaultNamespace = "crm/private"
	DefaultFormat    = "json"
	DefaultScope     = "crmapi"
)

// Endpoint is the protocol and authority requests are sent to.
type Endpoint struct {
	Scheme string
	Host   string
	// Port is omitted from URLs when zero.
	Port int
}

// DefaultEndpoint returns the public CRM endpoint.
func DefaultEndpoint() Endpoint {
	return Endpoint{Scheme: DefaultScheme, Host: DefaultHost}
}

// String renders the endpoint as scheme://host[:port]
func (e Endpoint) String() string {
	scheme := e.Scheme
	if scheme == "" {
		scheme = DefaultScheme
	}
	host := e.Host
	if host == "" {
		host = DefaultHost
	}
	if e.Port > 0 {
		return scheme + "://" + host + ":" + strconv.Itoa(e.Port)
	}
	return scheme + "://" + host
}

// route is the fixed part of the request path.
type route struct {
	namespace string
	format    string
	scope     string
}

// BuildURL assembles the request URL for req using the default namespace and format.
// It performs no escaping.
func BuildURL(ep Endpoint, token, scope string, req ActionRequest) string {
	return buildURL(ep, route{namespace: DefaultNamespace, format: DefaultFormat, scope: scope}, token, req)
}

func buildURL(ep Endpoint, rt route, token string, req ActionRequest) string {
	var sb strings.Builder
	sb.WriteString(ep.String())
	sb.WriteByte('/')
	sb.WriteString(strings.Trim(rt.namespace, "/"))
	sb.WriteByte('/')
	sb.WriteString(rt.format)
	sb.WriteByte('/')
	sb.WriteString(req.Collection)
	sb.WriteByte('/')
	sb.WriteString(string(req.Action))
	sb.WriteString("?wfTrigger=true&authtoken=")
	sb.WriteString(token)
	sb.WriteString("&scope=")
	sb.WriteString(rt.scope)

	if req.Query != "" {
		sb.WriteString("&")
		sb.WriteString(req.Query)
	}
	if req.ObjectID != "" {
		sb.WriteString("&id=")
		sb.WriteString(req.ObjectID)
	}
	if req.Attachment != "" {
		sb.WriteString("&content=")
		sb.WriteString(req.Attachment)
	}

	return sb.String()
}

// RedactToken replaces the authtoken parameter value in a built URL.
func RedactToken(rawURL string) string {
	const key = "authtoken="
	i := strings.Index(rawURL, key)
	if i < 0 {
		return rawURL
	}
	start := i + len(key)
	end := strings.IndexByte(rawURL[start:], '&')
	if end < 0 {
		return rawURL[:start] + "REDACTED"
	}
	return rawURL[:start] + "REDACTED" + rawURL[start+end:]
}

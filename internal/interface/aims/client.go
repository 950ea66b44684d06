package aims

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crewsync-service/internal/domain/entity"
	"crewsync-service/pkg/logger"
)

const (
	soapEnvelopeNS       = "http://schemas.xmlsoap.org/soap/envelope/"
	defaultServiceNS     = "http://tempuri.org/"
	maxResponseBodyBytes = 64 << 20
)

var authMarkers = []string{"credential", "login", "password", "unauthor", "not authori", "access denied"}

// Credentials is one user/password pair of the web service
type Credentials struct {
	Username string
	Password string
}

// ClientConfig configures the SOAP client
type ClientConfig struct {
	Endpoint string
	// Namespace of the service operations, also the SOAPAction prefix
	Namespace string
	Crew      Credentials
	// Flights is used for flight and modification log methods; falls back to Crew
	Flights Credentials
	Timeout time.Duration
}

// Client calls AIMS web service operations over SOAP 1.1
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a SOAP client
func NewClient(cfg ClientConfig, logger logger.Logger) *Client {
	if cfg.Namespace == "" {
		cfg.Namespace = defaultServiceNS
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Flights.Username == "" {
		cfg.Flights = cfg.Crew
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// param is one named operation argument, encoded in order
type param struct {
	Name  string
	Value string
}

func dateParams(prefix string, d time.Time, monthName, yearName string) []param {
	return []param{
		{prefix + "DD", d.Format("02")},
		{prefix + monthName, d.Format("01")},
		{prefix + yearName, d.Format("2006")},
	}
}

// call invokes method with the credentials and arguments and decodes the
// operation result element into out
func (c *Client) call(ctx context.Context, method string, creds Credentials, params []param, out interface{}) error {
	body, err := c.envelope(method, creds, params)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return entity.Unavailable(method, err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `"`+strings.TrimSuffix(c.cfg.Namespace, "/")+"/"+method+`"`)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.Unavailable(method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return entity.Unavailable(method, err)
	}
	c.logger.Debug("AIMS call completed",
		"method", method,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration", time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return entity.AuthFailure(method, fmt.Errorf("http status %d", resp.StatusCode))
	}

	var env envelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 300 {
			return entity.Unavailable(method, fmt.Errorf("http status %d", resp.StatusCode))
		}
		return entity.Unavailable(method, fmt.Errorf("malformed envelope: %w", err))
	}
	if env.Body.Fault != nil {
		ferr := fmt.Errorf("soap fault %s: %s", env.Body.Fault.Code, env.Body.Fault.String)
		if isAuthMessage(env.Body.Fault.String) {
			return entity.AuthFailure(method, ferr)
		}
		return entity.Unavailable(method, ferr)
	}
	if resp.StatusCode >= 300 {
		return entity.Unavailable(method, fmt.Errorf("http status %d", resp.StatusCode))
	}

	if err := xml.Unmarshal(env.Body.Content, out); err != nil {
		return entity.Unavailable(method, fmt.Errorf("malformed %s response: %w", method, err))
	}
	return nil
}

func (c *Client) envelope(method string, creds Credentials, params []param) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	envStart := xml.StartElement{
		Name: xml.Name{Local: "soap:Envelope"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "xmlns:soap"}, Value: soapEnvelopeNS}},
	}
	bodyStart := xml.StartElement{Name: xml.Name{Local: "soap:Body"}}
	opStart := xml.StartElement{Name: xml.Name{Space: c.cfg.Namespace, Local: method}}

	all := append([]param{{"UN", creds.Username}, {"PSW", creds.Password}}, params...)
	tokens := []xml.Token{envStart, bodyStart, opStart}
	for _, p := range all {
		el := xml.StartElement{Name: xml.Name{Local: p.Name}}
		tokens = append(tokens, el, xml.CharData(p.Value), el.End())
	}
	tokens = append(tokens, opStart.End(), bodyStart.End(), envStart.End())

	for _, t := range tokens {
		if err := enc.EncodeToken(t); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// checkExplanation turns a populated ErrorExplanation into an error when it
// reports a credential problem. Other explanations only mean an empty result.
func (c *Client) checkExplanation(method, explanation string) error {
	explanation = strings.TrimSpace(explanation)
	if explanation == "" {
		return nil
	}
	if isAuthMessage(explanation) {
		return entity.AuthFailure(method, errors.New(explanation))
	}
	c.logger.Warn("AIMS returned an explanation", "method", method, "explanation", explanation)
	return nil
}

func isAuthMessage(msg string) bool {
	m := strings.ToLower(msg)
	for _, marker := range authMarkers {
		if strings.Contains(m, marker) {
			return true
		}
	}
	return false
}

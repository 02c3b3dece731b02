package cf_scraper

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/caffix/cloudflare-roundtripper/cfrt"
	"github.com/gocolly/colly"
)

// ErrAuth marks 401/403 responses. Auth failures are fatal for a run; no
// partial work is assumed valid after one.
var ErrAuth = errors.New("authentication failed")

// Client speaks to the Confluence REST API of one space: JSON reads over
// an authenticated session plus binary downloads for attachments.
type Client struct {
	server   string
	space    string
	user     string
	password string
	http     *http.Client
}

func NewClient(server, space, user, password string) *Client {
	c := new(Client)
	c.server = strings.TrimRight(server, "/")
	c.space = space
	c.user = user
	c.password = password
	c.http = &http.Client{Transport: newCFTransport()}
	return c
}

func (c *Client) Space() string {
	return c.space
}

func newCFTransport() http.RoundTripper {
	transport, err :=
		cfrt.New(&http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   15 * time.Second,
				KeepAlive: 15 * time.Second,
				DualStack: true,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		})
	if err != nil {
		log.Fatal(err)
	}
	return transport
}

// newDownloader builds the collector used for attachment downloads. It
// shares the client's transport and credentials.
func (c *Client) newDownloader() *colly.Collector {
	collector := colly.NewCollector(
		colly.IgnoreRobotsTxt(),
		colly.UserAgent("Mozilla"),
		colly.AllowURLRevisit(),
	)
	collector.WithTransport(newCFTransport())
	if c.user != "" {
		auth := "Basic " + base64.StdEncoding.EncodeToString([]byte(c.user+":"+c.password))
		collector.OnRequest(func(r *colly.Request) {
			r.Headers.Set("Authorization", auth)
		})
	}
	return collector
}

// GetJSON performs an authenticated GET of a server-relative path and
// decodes the JSON response into v. params may be nil when the path
// already carries its query, as continuation links do.
func (c *Client) GetJSON(path string, params url.Values, v any) error {
	target := c.server + path
	if params != nil {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target = target + sep + params.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", target, err)
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("GET %s: status %d: %w", target, resp.StatusCode, ErrAuth)
	default:
		return fmt.Errorf("GET %s: unexpected status %d", target, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s: %w", target, err)
	}
	return nil
}

// AbsoluteURL resolves a server-relative path such as an attachment
// download link.
func (c *Client) AbsoluteURL(path string) string {
	return c.server + path
}

// TestConnection checks the space endpoint and, when verbose, prints the
// status with hints for the usual failure codes.
func (c *Client) TestConnection(verbose bool) bool {
	target := c.server + c.spacePath()
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return false
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		if verbose {
			fmt.Printf("Error: %v\n", err)
		}
		return false
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	if verbose {
		codes := map[int]string{
			200: "Connection OK",
			401: "Authentication error",
			404: "URL not found or missing permissions",
			429: "Too many requests",
		}
		fmt.Println(target)
		if hint, ok := codes[status]; ok {
			fmt.Printf("%d %s\n", status, hint)
		} else {
			fmt.Printf("%d\n", status)
		}
	}

	if status == http.StatusOK {
		var v map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
			if verbose {
				fmt.Println("Response is not decodable JSON")
			}
			return false
		}
	}
	return status < 400
}

func (c *Client) listingPath() string {
	return fmt.Sprintf("/rest/api/space/%s/content/blogpost", c.space)
}

func (c *Client) spacePath() string {
	return fmt.Sprintf("/rest/api/space/%s", c.space)
}

func contentPath(id string) string {
	return fmt.Sprintf("/rest/api/content/%s", id)
}

func childPath(id, kind string) string {
	return fmt.Sprintf("/rest/api/content/%s/child/%s", id, kind)
}

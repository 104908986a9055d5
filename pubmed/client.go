package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/medperplexity/clinical-api/logging"
)

// apiBase is the NCBI E-Utilities endpoint. Declared as a var so tests
// can substitute an httptest server.
var apiBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"

const (
	searchTimeout = 10 * time.Second
	fetchTimeout  = 15 * time.Second

	// maxResults caps how many PMIDs a search returns
	maxResults = 5
)

// Search filters appended to every query term.
const (
	qualityFilter  = " AND (Systematic Review[pt] OR Guideline[pt] OR Clinical Trial[pt] OR Meta-Analysis[pt])"
	dateFilter     = ` AND ("2015/01/01"[Date - Publication] : "3000"[Date - Publication])`
	languageFilter = " AND English[Language]"
)

var markupRegex = regexp.MustCompile(`<[^>]+>`)

// cleanText strips markup tags and collapses whitespace.
func cleanText(text string) string {
	clean := markupRegex.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(clean), " ")
}

// Client talks to the E-Utilities API. The email identifies the caller to
// NCBI as their usage policy asks.
type Client struct {
	email  string
	client *http.Client
}

// NewClient creates a PubMed client reporting the given contact email.
func NewClient(email string) *Client {
	return &Client{
		email:  email,
		client: &http.Client{},
	}
}

// esearch JSON response, reduced to the id list.
type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// Search resolves a query to PMIDs via esearch, most relevant first.
// Strict mode restricts results to high-evidence publication types; the
// date and language filters always apply.
func (c *Client) Search(ctx context.Context, query string, strict bool) ([]string, error) {
	quality := ""
	if strict {
		quality = qualityFilter
	}
	term := fmt.Sprintf("(%s)%s%s%s", query, quality, dateFilter, languageFilter)

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmax":  {strconv.Itoa(maxResults)},
		"sort":    {"relevance"},
		"retmode": {"json"},
		"email":   {c.email},
	}

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"esearch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating esearch request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("esearch returned HTTP %d", resp.StatusCode)
	}

	var sr esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing esearch response: %w", err)
	}

	return sr.Result.IDList, nil
}

// efetch XML structures, reduced to the fields the Article needs.
// Free-text elements use innerxml so embedded markup survives decoding
// and can be stripped by cleanText.
type pubmedArticleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID         string         `xml:"MedlineCitation>PMID"`
	Title        string         `xml:"MedlineCitation>Article>ArticleTitle"`
	ISOAbbrev    string         `xml:"MedlineCitation>Article>Journal>ISOAbbreviation"`
	JournalTitle string         `xml:"MedlineCitation>Article>Journal>Title"`
	Year         string         `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Year"`
	Month        string         `xml:"MedlineCitation>Article>Journal>JournalIssue>PubDate>Month"`
	Abstract     []abstractText `xml:"MedlineCitation>Article>Abstract>AbstractText"`
}

type abstractText struct {
	Label string `xml:"Label,attr"`
	Text  string `xml:",innerxml"`
}

// toArticle normalizes one raw record, degrading absent fields to
// placeholder strings instead of failing.
func (a pubmedArticle) toArticle() Article {
	pmid := strings.TrimSpace(a.PMID)
	if pmid == "" {
		pmid = "Unknown"
	}

	title := cleanText(a.Title)
	if title == "" {
		title = "No Title"
	}

	journal := strings.TrimSpace(a.ISOAbbrev)
	if journal == "" {
		journal = strings.TrimSpace(a.JournalTitle)
	}
	if journal == "" {
		journal = "Unknown Journal"
	}

	year := strings.TrimSpace(a.Year)
	if year == "" {
		year = "Unknown"
	}
	pubDate := strings.TrimSpace(year + " " + strings.TrimSpace(a.Month))

	abstract := "No Abstract Available."
	if len(a.Abstract) > 0 {
		parts := make([]string, 0, len(a.Abstract))
		for _, section := range a.Abstract {
			if section.Label != "" {
				parts = append(parts, strings.ToUpper(section.Label)+": "+section.Text)
			} else {
				parts = append(parts, section.Text)
			}
		}
		if cleaned := cleanText(strings.Join(parts, "\n")); cleaned != "" {
			abstract = cleaned
		}
	}

	return Article{
		PMID:     pmid,
		Title:    title,
		Journal:  journal,
		PubDate:  pubDate,
		Abstract: abstract,
		URL:      fmt.Sprintf("https://pubmed.ncbi.nlm.nih.gov/%s/", pmid),
	}
}

// empty reports whether a decoded record carries nothing usable.
func (a pubmedArticle) empty() bool {
	return strings.TrimSpace(a.PMID) == "" &&
		cleanText(a.Title) == "" &&
		len(a.Abstract) == 0
}

// Fetch loads article details for the given PMIDs via efetch. A record
// with no usable content is skipped, never fatal to the batch.
func (c *Client) Fetch(ctx context.Context, ids []string) ([]Article, error) {
	if len(ids) == 0 {
		return []Article{}, nil
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
		"email":   {c.email},
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiBase+"efetch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating efetch request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("efetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("efetch returned HTTP %d", resp.StatusCode)
	}

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}

	articles := make([]Article, 0, len(set.Articles))
	for _, raw := range set.Articles {
		if raw.empty() {
			continue
		}
		articles = append(articles, raw.toArticle())
	}

	return articles, nil
}

// Retrieve runs the full strict-then-relaxed retrieval for one query.
// Errors from either phase are logged and treated as zero results; the
// outcome is always reported inside the result.
func (c *Client) Retrieve(ctx context.Context, query string) RetrievalResult {
	ids, err := c.Search(ctx, query, true)
	if err != nil {
		logging.Warn("Strict PubMed search failed", "query", query, "error", err)
		ids = nil
	}

	if len(ids) == 0 {
		relaxed, err := c.Search(ctx, query, false)
		if err != nil {
			logging.Warn("Relaxed PubMed search failed", "query", query, "error", err)
			relaxed = nil
		}
		ids = relaxed
	}

	if len(ids) == 0 {
		return RetrievalResult{Status: StatusError, Message: "No results found."}
	}

	articles, err := c.Fetch(ctx, ids)
	if err != nil {
		logging.Warn("PubMed fetch failed", "query", query, "error", err)
		articles = nil
	}

	// A search hit with no retrievable details is still a failed retrieval
	if len(articles) == 0 {
		return RetrievalResult{Status: StatusError, Message: "No article details could be retrieved."}
	}

	return RetrievalResult{
		Status:        StatusSuccess,
		EvidenceCount: len(articles),
		Articles:      articles,
	}
}

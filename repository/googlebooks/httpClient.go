package googlebooksrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"librarium/util/apperr"
	"librarium/util/httpx"
)

const baseURL = "https://www.googleapis.com/books/v1/volumes"

type httpRepo struct {
	apiKey string
	client *http.Client
}

func NewHTTP(apiKey string) Repo { return &httpRepo{apiKey: apiKey, client: httpx.Client()} }

// wire shape of the volumes endpoint
type volumeInfo struct {
	Title               string   `json:"title"`
	Authors             []string `json:"authors"`
	Publisher           string   `json:"publisher"`
	PublishedDate       string   `json:"publishedDate"`
	Description         string   `json:"description"`
	PageCount           int      `json:"pageCount"`
	Language            string   `json:"language"`
	IndustryIdentifiers []struct {
		Type       string `json:"type"`
		Identifier string `json:"identifier"`
	} `json:"industryIdentifiers"`
	ImageLinks struct {
		Thumbnail string `json:"thumbnail"`
	} `json:"imageLinks"`
}

type volumesResp struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo volumeInfo `json:"volumeInfo"`
	} `json:"items"`
}

func (r *httpRepo) Search(ctx context.Context, query string) (*SearchResult, error) {
	if query == "" {
		return nil, apperr.InvalidInput("query is required")
	}
	resp, err := r.get(ctx, query, 20)
	if err != nil {
		return nil, err
	}
	out := &SearchResult{TotalItems: resp.TotalItems}
	for _, it := range resp.Items {
		out.Volumes = append(out.Volumes, toVolume(it.VolumeInfo))
	}
	return out, nil
}

func (r *httpRepo) ByISBN(ctx context.Context, isbn string) (*Volume, error) {
	if isbn == "" {
		return nil, apperr.InvalidInput("isbn is required")
	}
	resp, err := r.get(ctx, "isbn:"+isbn, 1)
	if err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, apperr.NotFound("no volume found for isbn " + isbn)
	}
	v := toVolume(resp.Items[0].VolumeInfo)
	if v.ISBN == "" {
		v.ISBN = isbn
	}
	return &v, nil
}

func (r *httpRepo) get(ctx context.Context, query string, maxResults int) (*volumesResp, error) {
	if r.apiKey == "" {
		return nil, apperr.New(apperr.KindUnavailable, "google books api key not configured")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("key", r.apiKey)
	params.Set("maxResults", fmt.Sprint(maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperr.Newf(apperr.KindUnavailable, "google books request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, apperr.Newf(apperr.KindUnavailable, "google books responded %s", resp.Status)
	}

	var out volumesResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func toVolume(vi volumeInfo) Volume {
	v := Volume{
		Title:         vi.Title,
		Publisher:     vi.Publisher,
		PublishedDate: vi.PublishedDate,
		Description:   vi.Description,
		PageCount:     vi.PageCount,
		Language:      vi.Language,
		Thumbnail:     vi.ImageLinks.Thumbnail,
	}
	if len(vi.Authors) > 0 {
		v.Author = vi.Authors[0]
	}
	for _, id := range vi.IndustryIdentifiers {
		if id.Type == "ISBN_13" {
			v.ISBN = id.Identifier
			break
		}
		if id.Type == "ISBN_10" && v.ISBN == "" {
			v.ISBN = id.Identifier
		}
	}
	return v
}

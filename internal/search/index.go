package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/hr_portal/internal/models"
)

type EmployeeDocument struct {
	ID           uint      `json:"id"`
	EmployeeID   string    `json:"employee_id"`
	Position     string    `json:"position"`
	Status       string    `json:"status"`
	DepartmentID *uint     `json:"department_id,omitempty"`
	Department   string    `json:"department,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	HireDate     time.Time `json:"hire_date"`
}

func DocumentFromEmployee(e *models.Employee) EmployeeDocument {
	doc := EmployeeDocument{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		Position:     e.Position,
		Status:       e.Status,
		DepartmentID: e.DepartmentID,
		HireDate:     e.HireDate,
	}
	if e.Department != nil {
		doc.Department = e.Department.Name
	}
	if e.User != nil {
		doc.FirstName = e.User.FirstName
		doc.LastName = e.User.LastName
		doc.Email = e.User.Email
	}
	return doc
}

type Index interface {
	IndexEmployee(ctx context.Context, doc EmployeeDocument) error
	DeleteEmployee(ctx context.Context, id uint) error
	SearchEmployees(ctx context.Context, query string, from, size int) (int64, []uint, error)
}

type ElasticIndex struct {
	es    *elasticsearch.Client
	index string
}

func NewElasticIndex(es *elasticsearch.Client, index string) *ElasticIndex {
	if index == "" {
		index = "employees"
	}
	return &ElasticIndex{es: es, index: index}
}

func (i *ElasticIndex) IndexEmployee(ctx context.Context, doc EmployeeDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("es: marshal employee %d: %w", doc.ID, err)
	}
	res, err := i.es.Index(
		i.index,
		bytes.NewReader(body),
		i.es.Index.WithContext(ctx),
		i.es.Index.WithDocumentID(strconv.FormatUint(uint64(doc.ID), 10)),
		i.es.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("es: index employee %d: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("es: index employee %d: %s", doc.ID, res.Status())
	}
	return nil
}

func (i *ElasticIndex) DeleteEmployee(ctx context.Context, id uint) error {
	res, err := i.es.Delete(
		i.index,
		strconv.FormatUint(uint64(id), 10),
		i.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("es: delete employee %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es: delete employee %d: %s", id, res.Status())
	}
	return nil
}

func (i *ElasticIndex) SearchEmployees(ctx context.Context, query string, from, size int) (int64, []uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     strings.TrimSpace(query),
				"fields":    []string{"first_name^2", "last_name^2", "employee_id^3", "email", "position", "department"},
				"fuzziness": "AUTO",
			},
		},
		"from":    from,
		"size":    size,
		"_source": false,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("es: encode query: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("es: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("es: search: %s: %s", res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Total struct{ Value int64 } `json:"total"`
			Hits  []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("es: decode response: %w", err)
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		id, err := strconv.ParseUint(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return r.Hits.Total.Value, ids, nil
}

// NewElasticClient connects and checks the cluster answers.
func NewElasticClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("es: new client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("es: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("es: info: %s", res.Status())
	}
	return client, nil
}

// Command config_audit walks every department of an institution through the
// running API and reports override drift: how many fields each department
// overrides, and which overrides currently collide with an institution
// restriction. Run it after tightening institution policy to find departments
// whose stored overrides are now being snapped back to the institution value.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type department struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Active bool   `json:"active"`
}

type fieldConflict struct {
	FieldPath  string `json:"field_path"`
	Type       string `json:"type"`
	Resolution string `json:"resolution"`
	Message    string `json:"message"`
}

type departmentConfig struct {
	DepartmentID     string          `json:"department_id"`
	InheritedFields  []string        `json:"inherited_fields"`
	OverriddenFields []string        `json:"overridden_fields"`
	Conflicts        []fieldConflict `json:"conflicts"`
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base          string
		token         string
		institutionID string
		timeout       time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL including prefix")
	flag.StringVar(&token, "token", os.Getenv("CAMPUS_ADMIN_TOKEN"), "Bearer token with admin access")
	flag.StringVar(&institutionID, "institution", "", "Institution ID to audit")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	if institutionID == "" {
		log.Fatal("-institution is required")
	}
	if token == "" {
		log.Fatal("-token or CAMPUS_ADMIN_TOKEN is required")
	}

	client := &apiClient{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		client: &http.Client{Timeout: timeout},
	}

	departments, err := client.listDepartments(institutionID)
	if err != nil {
		log.Fatalf("list departments: %v", err)
	}

	fmt.Printf("Override audit for institution %s (%d departments)\n", institutionID, len(departments))
	fmt.Println("=====================================================")

	drifting := 0
	for _, dept := range departments {
		cfg, err := client.departmentConfig(dept.ID)
		if err != nil {
			fmt.Printf("[ERROR] %s (%s): %v\n", dept.Name, dept.Code, err)
			drifting++
			continue
		}

		blocking := 0
		for _, conflict := range cfg.Conflicts {
			if conflict.Resolution == "use_institution" {
				blocking++
			}
		}

		status := "OK"
		if blocking > 0 {
			status = "DRIFT"
			drifting++
		}
		fmt.Printf("[%s] %s (%s): %d overridden, %d inherited\n",
			status, dept.Name, dept.Code, len(cfg.OverriddenFields), len(cfg.InheritedFields))
		for _, conflict := range cfg.Conflicts {
			if conflict.Resolution != "use_institution" {
				continue
			}
			fmt.Printf("    %s: %s\n", conflict.FieldPath, conflict.Message)
		}
	}

	fmt.Printf("Departments with blocked overrides: %d\n", drifting)
	if drifting > 0 {
		os.Exit(1)
	}
}

type apiClient struct {
	base   string
	token  string
	client *http.Client
}

func (c *apiClient) listDepartments(institutionID string) ([]department, error) {
	var departments []department
	if err := c.get("/institutions/"+institutionID+"/departments", &departments); err != nil {
		return nil, err
	}
	return departments, nil
}

func (c *apiClient) departmentConfig(departmentID string) (*departmentConfig, error) {
	var cfg departmentConfig
	if err := c.get("/departments/"+departmentID+"/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *apiClient) get(path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response (%d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.Unmarshal(env.Data, out)
}

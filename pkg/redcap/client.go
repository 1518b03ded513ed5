package redcap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iankuys/c2c-survey-app/pkg/apihelpers"
)

const (
	OperationExportRecords = "export_records"
	OperationImportRecords = "import_records"
	OperationExportReport  = "export_report"
)

// Record is one flat row as exchanged with the records service: field name to raw value.
type Record map[string]string

type ClientConfig struct {
	URL                  string
	Token                string
	Timeout              time.Duration
	MTLSCertificatePaths *apihelpers.CertificatePaths

	// HTTPClient replaces the client built from Timeout and MTLSCertificatePaths.
	HTTPClient *http.Client
}

// ExportRequest narrows a record export. Empty slices mean "all".
type ExportRequest struct {
	Records []string
	Fields  []string
	Events  []string
}

func (cConfig ClientConfig) ExportRecords(ctx context.Context, req ExportRequest) ([]Record, error) {
	form := url.Values{}
	form.Set("content", "record")
	form.Set("action", "export")
	form.Set("format", "json")
	form.Set("type", "flat")
	form.Set("csvDelimiter", "")
	addIndexed(form, "records", req.Records)
	addIndexed(form, "fields", req.Fields)
	addIndexed(form, "events", req.Events)
	form.Set("rawOrLabel", "raw")
	form.Set("rawOrLabelHeaders", "raw")
	form.Set("exportCheckboxLabel", "false")
	form.Set("exportSurveyFields", "false")
	form.Set("exportDataAccessGroups", "false")
	form.Set("returnFormat", "json")

	body, status, err := cConfig.post(ctx, OperationExportRecords, form)
	if err != nil {
		return nil, err
	}
	return decodeRecords(OperationExportRecords, body, status)
}

func (cConfig ClientConfig) ExportReport(ctx context.Context, reportID string) ([]Record, error) {
	form := url.Values{}
	form.Set("content", "report")
	form.Set("format", "json")
	form.Set("report_id", reportID)
	form.Set("csvDelimiter", "")
	form.Set("rawOrLabel", "raw")
	form.Set("rawOrLabelHeaders", "raw")
	form.Set("exportCheckboxLabel", "false")
	form.Set("returnFormat", "json")

	body, status, err := cConfig.post(ctx, OperationExportReport, form)
	if err != nil {
		return nil, err
	}
	return decodeRecords(OperationExportReport, body, status)
}

// ImportRecords upserts the given rows and returns how many records the service reports
// as written. Existing values are only replaced, never blanked.
func (cConfig ClientConfig) ImportRecords(ctx context.Context, records []Record) (int, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return 0, err
	}

	form := url.Values{}
	form.Set("content", "record")
	form.Set("action", "import")
	form.Set("format", "json")
	form.Set("type", "flat")
	form.Set("overwriteBehavior", "normal")
	form.Set("forceAutoNumber", "false")
	form.Set("data", string(data))
	form.Set("returnContent", "count")
	form.Set("returnFormat", "json")

	body, status, err := cConfig.post(ctx, OperationImportRecords, form)
	if err != nil {
		return 0, err
	}
	return decodeCount(OperationImportRecords, body, status)
}

func (cConfig ClientConfig) post(ctx context.Context, operation string, form url.Values) ([]byte, int, error) {
	start := time.Now()
	form.Set("token", cConfig.Token)

	client, err := cConfig.httpClient()
	if err != nil {
		slog.Error("Error creating transport with mTLS config", slog.String("error", err.Error()))
		observeCall(operation, callStatusTransportError, start)
		return nil, 0, &ServiceError{Operation: operation, Message: "client setup failed", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cConfig.URL, strings.NewReader(form.Encode()))
	if err != nil {
		slog.Error("unexpected error in preparing http request", slog.String("error", err.Error()))
		observeCall(operation, callStatusTransportError, start)
		return nil, 0, &ServiceError{Operation: operation, Message: "invalid request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		slog.Error("unexpected error in http call", slog.String("operation", operation), slog.String("error", err.Error()))
		observeCall(operation, callStatusTransportError, start)
		return nil, 0, &ServiceError{Operation: operation, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Error reading response", slog.String("operation", operation), slog.String("error", err.Error()))
		observeCall(operation, callStatusTransportError, start)
		return nil, resp.StatusCode, &ServiceError{Operation: operation, Message: "reading response failed", StatusCode: resp.StatusCode, Err: err}
	}

	status := callStatusOK
	if resp.StatusCode >= 400 {
		status = callStatusServiceError
	}
	observeCall(operation, status, start)
	return body, resp.StatusCode, nil
}

func (cConfig ClientConfig) httpClient() (*http.Client, error) {
	if cConfig.HTTPClient != nil {
		return cConfig.HTTPClient, nil
	}

	client := &http.Client{
		Timeout: cConfig.Timeout,
	}
	if cConfig.MTLSCertificatePaths != nil {
		tlsConfig, err := apihelpers.LoadClientTLSConfig(*cConfig.MTLSCertificatePaths)
		if err != nil {
			return nil, err
		}
		client.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}
	return client, nil
}

func addIndexed(form url.Values, name string, values []string) {
	for i, v := range values {
		form.Set(fmt.Sprintf("%s[%d]", name, i), v)
	}
}

func decodeRecords(operation string, body []byte, statusCode int) ([]Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &ServiceError{Operation: operation, Message: "empty response", StatusCode: statusCode}
	}

	switch trimmed[0] {
	case '{':
		return nil, objectResponseError(operation, trimmed, statusCode)
	case '[':
		if statusCode >= 400 {
			return nil, &ServiceError{Operation: operation, Message: "unexpected status", StatusCode: statusCode}
		}
		var rows []map[string]interface{}
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, &ServiceError{Operation: operation, Message: "malformed record list", StatusCode: statusCode, Err: err}
		}
		records := make([]Record, 0, len(rows))
		for _, row := range rows {
			r := make(Record, len(row))
			for k, v := range row {
				r[k] = stringValue(v)
			}
			records = append(records, r)
		}
		return records, nil
	default:
		return nil, &ServiceError{Operation: operation, Message: "unexpected response format", StatusCode: statusCode}
	}
}

func decodeCount(operation string, body []byte, statusCode int) (int, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return 0, &ServiceError{Operation: operation, Message: "unexpected response format", StatusCode: statusCode}
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return 0, &ServiceError{Operation: operation, Message: "malformed response", StatusCode: statusCode, Err: err}
	}
	if errMsg, hasError := obj["error"]; hasError {
		return 0, &ServiceError{Operation: operation, Message: stringValue(errMsg), StatusCode: statusCode}
	}
	if statusCode >= 400 {
		return 0, &ServiceError{Operation: operation, Message: "unexpected status", StatusCode: statusCode}
	}

	count, err := strconv.Atoi(stringValue(obj["count"]))
	if err != nil {
		return 0, &ServiceError{Operation: operation, Message: "response has no count", StatusCode: statusCode, Err: err}
	}
	return count, nil
}

func objectResponseError(operation string, body []byte, statusCode int) error {
	var obj map[string]interface{}
	if err := json.Unmarshal(body, &obj); err != nil {
		return &ServiceError{Operation: operation, Message: "malformed response", StatusCode: statusCode, Err: err}
	}
	if errMsg, hasError := obj["error"]; hasError {
		return &ServiceError{Operation: operation, Message: stringValue(errMsg), StatusCode: statusCode}
	}
	return &ServiceError{Operation: operation, Message: "expected a list of records", StatusCode: statusCode}
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

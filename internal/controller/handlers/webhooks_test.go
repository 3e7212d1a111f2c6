package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yuchialin/clinicline/internal/model"
	"github.com/yuchialin/clinicline/internal/service"
)

const testChannelSecret = "test-channel-secret"

type memApprovalStore struct {
	requests map[int64]*model.ApprovalRequest
}

func (m *memApprovalStore) Create(_ context.Context, req *model.ApprovalRequest) error {
	req.ID = int64(len(m.requests) + 1)
	m.requests[req.ID] = req
	return nil
}

func (m *memApprovalStore) GetByID(_ context.Context, tenantID, id int64) (*model.ApprovalRequest, error) {
	r, ok := m.requests[id]
	if !ok || r.TenantID != tenantID {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memApprovalStore) ListPending(_ context.Context, tenantID int64) ([]*model.ApprovalRequest, error) {
	var out []*model.ApprovalRequest
	for _, r := range m.requests {
		if r.TenantID == tenantID && r.Status == model.ApprovalStatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memApprovalStore) MarkReviewed(_ context.Context, tenantID, id, reviewerID int64, status model.ApprovalStatus, reason string) (bool, error) {
	r, ok := m.requests[id]
	if !ok || r.TenantID != tenantID || r.Status != model.ApprovalStatusPending {
		return false, nil
	}
	now := time.Now()
	r.Status = status
	r.ReviewedBy = &reviewerID
	r.ReviewedAt = &now
	r.Reason = reason
	return true, nil
}

func (m *memApprovalStore) ApproveReschedule(_ context.Context, tenantID, id, reviewerID int64) (bool, error) {
	return m.MarkReviewed(context.Background(), tenantID, id, reviewerID, model.ApprovalStatusApproved, "")
}

type memAppointmentStore struct {
	appointments map[int64]*model.Appointment
}

func (m *memAppointmentStore) Create(_ context.Context, appt *model.Appointment) error {
	appt.ID = int64(len(m.appointments) + 1)
	m.appointments[appt.ID] = appt
	return nil
}

func (m *memAppointmentStore) GetByID(_ context.Context, tenantID, id int64) (*model.Appointment, error) {
	a, ok := m.appointments[id]
	if !ok || a.TenantID != tenantID {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *memAppointmentStore) ListByDate(context.Context, int64, string) ([]*model.Appointment, error) {
	return nil, nil
}

func (m *memAppointmentStore) UpdateStatus(_ context.Context, tenantID, id int64, status model.AppointmentStatus) error {
	if a, ok := m.appointments[id]; ok && a.TenantID == tenantID {
		a.Status = status
	}
	return nil
}

func (m *memAppointmentStore) UpdateStatusIf(_ context.Context, tenantID, id int64, from, to model.AppointmentStatus) (bool, error) {
	a, ok := m.appointments[id]
	if !ok || a.TenantID != tenantID || a.Status != from {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (m *memAppointmentStore) ListConfirmedBetween(context.Context, time.Time, time.Time) ([]*model.Appointment, error) {
	return nil, nil
}

func newWebhookFixture(t *testing.T) (*gin.Engine, *memApprovalStore, *memAppointmentStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	approvals := &memApprovalStore{requests: make(map[int64]*model.ApprovalRequest)}
	appointments := &memAppointmentStore{appointments: make(map[int64]*model.Appointment)}

	logger := zap.NewNop()
	approvalSvc := service.NewApprovalService(approvals, appointments, logger)
	handler := NewWebhookHandler(testChannelSecret, approvalSvc, nil, logger)

	router := gin.New()
	router.POST("/webhooks/line", handler.Line)
	return router, approvals, appointments
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testChannelSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestLineWebhookRejectsBadSignature(t *testing.T) {
	router, _, _ := newWebhookFixture(t)

	body := []byte(`{"events":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/line", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", "forged")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestLineWebhookAcknowledgesEmptyEvents(t *testing.T) {
	router, _, _ := newWebhookFixture(t)

	body := []byte(`{"events":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/line", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", signBody(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestLineWebhookApprovePostback(t *testing.T) {
	router, approvals, appointments := newWebhookFixture(t)

	appointments.appointments[5] = &model.Appointment{
		ID: 5, TenantID: 1, Status: model.AppointmentStatusPending,
	}
	approvals.requests[3] = &model.ApprovalRequest{
		ID: 3, TenantID: 1, AppointmentID: 5,
		Kind: model.ApprovalKindAppointment, Status: model.ApprovalStatusPending,
	}

	body := []byte(`{"events":[{"type":"postback","mode":"active","timestamp":1757468400000,"source":{"type":"user","userId":"Ustaff"},"postback":{"data":"action=approve&tenant_id=1&request_id=3&reviewer_id=42"}}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/line", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", signBody(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if approvals.requests[3].Status != model.ApprovalStatusApproved {
		t.Errorf("request status = %s, want approved", approvals.requests[3].Status)
	}
	if appointments.appointments[5].Status != model.AppointmentStatusConfirmed {
		t.Errorf("appointment status = %s, want confirmed", appointments.appointments[5].Status)
	}
}

func TestLineWebhookRejectPostback(t *testing.T) {
	router, approvals, _ := newWebhookFixture(t)

	approvals.requests[3] = &model.ApprovalRequest{
		ID: 3, TenantID: 1, AppointmentID: 5,
		Kind: model.ApprovalKindAppointment, Status: model.ApprovalStatusPending,
	}

	body := []byte(`{"events":[{"type":"postback","mode":"active","timestamp":1757468400000,"source":{"type":"user","userId":"Ustaff"},"postback":{"data":"action=reject&tenant_id=1&request_id=3&reviewer_id=42&reason=%E6%99%82%E6%AE%B5%E4%B8%8D%E9%96%8B%E6%94%BE"}}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/line", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", signBody(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if approvals.requests[3].Status != model.ApprovalStatusRejected {
		t.Errorf("request status = %s, want rejected", approvals.requests[3].Status)
	}
	if approvals.requests[3].Reason != "時段不開放" {
		t.Errorf("reason = %q", approvals.requests[3].Reason)
	}
}

func TestLineWebhookIgnoresNonPostbackEvents(t *testing.T) {
	router, approvals, _ := newWebhookFixture(t)

	approvals.requests[3] = &model.ApprovalRequest{
		ID: 3, TenantID: 1, Kind: model.ApprovalKindAppointment, Status: model.ApprovalStatusPending,
	}

	body := []byte(`{"events":[{"type":"follow","mode":"active","timestamp":1757468400000,"source":{"type":"user","userId":"U1"}}]}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/line", bytes.NewReader(body))
	req.Header.Set("X-Line-Signature", signBody(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if approvals.requests[3].Status != model.ApprovalStatusPending {
		t.Error("follow event mutated approval state")
	}
}

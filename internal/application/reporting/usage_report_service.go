package reporting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appentitlement "github.com/studyhall/backend/internal/application/entitlement"
	"github.com/studyhall/backend/internal/domain/entitlement"
	"github.com/studyhall/backend/internal/domain/identity"
	"github.com/studyhall/backend/internal/domain/shared"
)

// PDFRenderer is the seam to the headless-browser PDF engine. The service
// hands it a complete HTML document; how the PDF is produced is not its
// business.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, title, html string) ([]byte, error)
}

// UsageSummarizer provides the per-principal entitlement summary.
// Implemented by the entitlement application service.
type UsageSummarizer interface {
	Summary(ctx context.Context, principalID uuid.UUID) (entitlement.Audience, string, []appentitlement.FeatureUsage, error)
}

// enrollmentPageSize is how many enrollments are pulled per page while
// building a report
const enrollmentPageSize = 200

// UsageReportService builds the institute usage report: seat pool standing
// plus per-student allowance usage, rendered to PDF for operators.
type UsageReportService struct {
	instituteRepo  identity.InstituteRepository
	enrollmentRepo identity.EnrollmentRepository
	accountRepo    identity.AccountRepository
	seatPoolRepo   entitlement.SeatPoolRepository
	summarizer     UsageSummarizer
	renderer       PDFRenderer
	logger         *zap.Logger
}

// NewUsageReportService creates a new UsageReportService
func NewUsageReportService(
	instituteRepo identity.InstituteRepository,
	enrollmentRepo identity.EnrollmentRepository,
	accountRepo identity.AccountRepository,
	seatPoolRepo entitlement.SeatPoolRepository,
	summarizer UsageSummarizer,
	renderer PDFRenderer,
	logger *zap.Logger,
) *UsageReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsageReportService{
		instituteRepo:  instituteRepo,
		enrollmentRepo: enrollmentRepo,
		accountRepo:    accountRepo,
		seatPoolRepo:   seatPoolRepo,
		summarizer:     summarizer,
		renderer:       renderer,
		logger:         logger,
	}
}

// UsageReport is the assembled report data
type UsageReport struct {
	InstituteName string
	InstituteCode string
	PlanID        string
	Status        string
	GeneratedAt   time.Time
	Seats         SeatUsage
	Students      []StudentUsage
}

// SeatUsage is the seat pool standing at report time
type SeatUsage struct {
	HasPool   bool
	Total     string // "unlimited" or the bound
	Used      int64
	Available string // "unlimited" or the headroom
}

// StudentUsage is one student row of the report
type StudentUsage struct {
	DisplayName string
	Email       string
	JoinedAt    time.Time
	PlanID      string
	Rows        []UsageRow
}

// UsageRow is one feature's standing for a student
type UsageRow struct {
	Feature string
	Used    int64
	Limit   string // "unlimited" or the bound
	Monthly bool
}

// Build assembles the report data for an institute
func (s *UsageReportService) Build(ctx context.Context, instituteID uuid.UUID) (*UsageReport, error) {
	institute, err := s.instituteRepo.FindByID(ctx, instituteID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("INSTITUTE_NOT_FOUND", "Institute not found")
		}
		return nil, err
	}

	report := &UsageReport{
		InstituteName: institute.Name,
		InstituteCode: institute.Code,
		PlanID:        institute.Tier,
		Status:        string(institute.Status),
		GeneratedAt:   time.Now(),
		Seats:         s.seatUsage(ctx, instituteID),
	}

	students, err := s.collectStudents(ctx, instituteID)
	if err != nil {
		return nil, err
	}
	report.Students = students

	return report, nil
}

// RenderPDF builds the report and renders it to a PDF document
func (s *UsageReportService) RenderPDF(ctx context.Context, instituteID uuid.UUID) ([]byte, error) {
	report, err := s.Build(ctx, instituteID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return nil, fmt.Errorf("execute usage report template: %w", err)
	}

	title := fmt.Sprintf("Usage report — %s", report.InstituteName)
	pdf, err := s.renderer.RenderHTML(ctx, title, buf.String())
	if err != nil {
		s.logger.Error("Usage report rendering failed",
			zap.String("institute_id", instituteID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("REPORT_RENDER_FAILED", "Failed to render the usage report")
	}

	return pdf, nil
}

func (s *UsageReportService) seatUsage(ctx context.Context, instituteID uuid.UUID) SeatUsage {
	pool, err := s.seatPoolRepo.FindByOwner(ctx, instituteID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Failed to load seat pool for report",
				zap.String("institute_id", instituteID.String()),
				zap.Error(err))
		}
		return SeatUsage{HasPool: false}
	}

	usage := SeatUsage{
		HasPool: pool.IsActive(),
		Total:   pool.TotalSeats.String(),
		Used:    pool.UsedSeats,
	}
	if n, ok := pool.AvailableSeats(); ok {
		usage.Available = fmt.Sprintf("%d", n)
	} else {
		usage.Available = "unlimited"
	}
	return usage
}

func (s *UsageReportService) collectStudents(ctx context.Context, instituteID uuid.UUID) ([]StudentUsage, error) {
	var students []StudentUsage

	filter := shared.Filter{Page: 1, PageSize: enrollmentPageSize, OrderBy: "joined_at", OrderDir: "asc"}
	for {
		page, err := s.enrollmentRepo.FindByInstitute(ctx, instituteID, filter)
		if err != nil {
			return nil, err
		}

		for _, enrollment := range page.Items {
			if !enrollment.IsActive() {
				continue
			}
			student, err := s.studentUsage(ctx, enrollment)
			if err != nil {
				// One unreadable student should not sink the whole report
				s.logger.Warn("Skipping student in usage report",
					zap.String("account_id", enrollment.AccountID.String()),
					zap.Error(err))
				continue
			}
			students = append(students, student)
		}

		if filter.Page >= page.TotalPages {
			break
		}
		filter.Page++
	}

	return students, nil
}

func (s *UsageReportService) studentUsage(ctx context.Context, enrollment *identity.Enrollment) (StudentUsage, error) {
	account, err := s.accountRepo.FindByID(ctx, enrollment.AccountID)
	if err != nil {
		return StudentUsage{}, err
	}

	_, planID, usages, err := s.summarizer.Summary(ctx, account.ID)
	if err != nil {
		return StudentUsage{}, err
	}

	student := StudentUsage{
		DisplayName: account.DisplayName,
		Email:       account.Email,
		JoinedAt:    enrollment.JoinedAt,
		PlanID:      planID,
	}
	for _, u := range usages {
		// Students carry no class allowance; keep the report to what applies
		if u.Feature == entitlement.FeatureClassCreation {
			continue
		}
		student.Rows = append(student.Rows, UsageRow{
			Feature: featureLabel(u.Feature),
			Used:    u.Current,
			Limit:   u.Limit.String(),
			Monthly: u.ResetPeriod == entitlement.ResetPeriodMonthly,
		})
	}
	return student, nil
}

func featureLabel(f entitlement.Feature) string {
	switch f {
	case entitlement.FeatureBookUpload:
		return "Books uploaded"
	case entitlement.FeatureQuizGeneration:
		return "Quizzes generated"
	case entitlement.FeatureAIQuery:
		return "AI questions asked"
	case entitlement.FeatureClassCreation:
		return "Classes"
	default:
		return f.String()
	}
}

var reportTemplate = template.Must(template.New("usage_report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; color: #1a1a2e; margin: 0; }
  h1 { font-size: 22px; margin-bottom: 2px; }
  .meta { color: #555; font-size: 12px; margin-bottom: 18px; }
  .seats { background: #f4f6fb; border-radius: 6px; padding: 12px 16px; margin-bottom: 22px; font-size: 13px; }
  table { width: 100%; border-collapse: collapse; font-size: 12px; }
  th { text-align: left; border-bottom: 2px solid #1a1a2e; padding: 6px 8px; }
  td { border-bottom: 1px solid #dde1ec; padding: 6px 8px; vertical-align: top; }
  .student { font-weight: 600; }
  .email { color: #555; }
  .monthly { color: #777; font-size: 10px; }
  .empty { color: #777; font-style: italic; padding: 18px 8px; }
</style>
</head>
<body>
<h1>{{.InstituteName}} — usage report</h1>
<div class="meta">
  Code {{.InstituteCode}} · plan {{.PlanID}} · status {{.Status}} ·
  generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}
</div>
<div class="seats">
  {{if .Seats.HasPool}}
    <strong>Seats:</strong> {{.Seats.Used}} used of {{.Seats.Total}} ({{.Seats.Available}} available)
  {{else}}
    <strong>Seats:</strong> no active subscription
  {{end}}
</div>
<table>
  <thead>
    <tr><th>Student</th><th>Plan</th><th>Feature</th><th>Used</th><th>Limit</th></tr>
  </thead>
  <tbody>
  {{range .Students}}
    {{$s := .}}
    {{range $i, $row := .Rows}}
    <tr>
      {{if eq $i 0}}
      <td rowspan="{{len $s.Rows}}">
        <span class="student">{{$s.DisplayName}}</span><br>
        <span class="email">{{$s.Email}}</span>
      </td>
      <td rowspan="{{len $s.Rows}}">{{$s.PlanID}}</td>
      {{end}}
      <td>{{$row.Feature}}{{if $row.Monthly}} <span class="monthly">(monthly)</span>{{end}}</td>
      <td>{{$row.Used}}</td>
      <td>{{$row.Limit}}</td>
    </tr>
    {{end}}
  {{else}}
    <tr><td colspan="5" class="empty">No students are enrolled.</td></tr>
  {{end}}
  </tbody>
</table>
</body>
</html>
`))

package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"homebudget/internal/core"
	"homebudget/internal/log"
	"homebudget/internal/metrics"
	"homebudget/internal/report"
)

const exportTimeout = 15 * time.Second

// summary returns the report for period, cached per ledger version and day.
// Any mutation bumps the version, so stale entries are never served.
func (s *Server) summary(ctx context.Context, period core.Period) core.ReportSummary {
	l := s.svc.Ledger()
	key := fmt.Sprintf("%s:%d:%s", period, l.Version(), core.DateOf(l.Now()))

	if sum, ok := s.reports.Get(key); ok {
		metrics.ReportCache.WithLabelValues("hit").Inc()
		s.logger.DebugContext(ctx, "Report cache hit", log.FieldPeriod, period)
		return sum
	}
	metrics.ReportCache.WithLabelValues("miss").Inc()

	sum := l.ReportSummary(period)
	s.reports.Set(key, sum)
	return sum
}

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	params, err := ParseReportParams(r.URL.Query())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().JSON(s.summary(r.Context(), params.Period)).Write(w)
}

// handleReportDownload renders the share text or CSV for a period.
func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request) {
	params, err := ParseReportParams(r.URL.Query())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}

	var buf bytes.Buffer
	err = report.Write(&buf, params.Format, s.summary(r.Context(), params.Period))
	metrics.ReportExports.WithLabelValues(string(params.Format), metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Report rendering failed",
			log.FieldOperation, log.OpExport,
			log.FieldPeriod, params.Period,
			log.FieldError, err)
		InternalServerError("could not render report").Write(w)
		return
	}

	ext := "txt"
	if params.Format == report.FormatCSV {
		ext = "csv"
	}
	NewResponse().
		Header("Content-Disposition", fmt.Sprintf(`attachment; filename="homebudget-%s.%s"`, params.Period, ext)).
		Raw(params.Format.ContentType(), buf.Bytes()).
		Write(w)
}

type exportResult struct {
	Period core.Period `json:"period"`
	Target string      `json:"target"`
	Ref    string      `json:"ref"`
}

// handleReportExport pushes the summary to the configured exporter.
func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		ErrorResponse(http.StatusServiceUnavailable, "no report exporter configured").Write(w)
		return
	}
	params, err := ParseReportParams(r.URL.Query())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), exportTimeout)
	defer cancel()

	ref, err := s.exporter.Export(ctx, s.summary(ctx, params.Period))
	metrics.ReportExports.WithLabelValues(s.target, metrics.Outcome(err)).Inc()
	if err != nil {
		s.logger.ErrorContext(ctx, "Report export failed",
			log.FieldOperation, log.OpExport,
			log.FieldPeriod, params.Period,
			"target", s.target,
			log.FieldError, err)
		ErrorResponse(http.StatusBadGateway, "report export failed").Write(w)
		return
	}

	s.logger.InfoContext(ctx, "Report exported",
		log.FieldOperation, log.OpExport,
		log.FieldPeriod, params.Period,
		log.FieldExportRef, ref)
	NewResponse().
		Status(http.StatusCreated).
		Trigger(EventReportExported, map[string]string{"period": string(params.Period), "ref": ref}).
		JSON(exportResult{Period: params.Period, Target: s.target, Ref: ref}).
		Write(w)
}

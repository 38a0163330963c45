package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	applogger "github.com/tss-calculator/go-lib/pkg/application/logger"
	"github.com/tss-calculator/imagebuilder/pkg/imagebuilder/application/model"
)

func NewPreparationService(
	repositories []model.Repository,
	logger applogger.Logger,
	preparer RepositoryPreparer,
	collector InitScriptCollector,
) Preparation {
	return &preparation{
		repositories: repositories,
		logger:       logger,
		preparer:     preparer,
		collector:    collector,
	}
}

type preparation struct {
	repositories []model.Repository

	logger    applogger.Logger
	preparer  RepositoryPreparer
	collector InitScriptCollector
}

// Run prepares every repository in registry order and collects their init scripts.
// A failed repository does not stop the batch, it is recorded in the report.
func (service preparation) Run(ctx context.Context) (model.PreparationReport, error) {
	var report model.PreparationReport
	purged, err := service.collector.PurgeGenerated()
	if err != nil {
		return report, errors.Wrap(err, "failed to purge generated init scripts")
	}
	report.Purged = purged

	sequence := model.FirstSequenceNumber
	for _, repository := range service.repositories {
		if err = ctx.Err(); err != nil {
			return report, err
		}
		outcome := service.preparer.Prepare(ctx, repository)
		if outcome.Ready() {
			script, ok, collectErr := service.collector.Collect(repository.Name, outcome.Path, sequence)
			switch {
			case collectErr != nil:
				outcome.State = model.StateFailed
				outcome.Err = fmt.Errorf("%w: %w", model.ErrInitScriptCopyFailed, collectErr)
				service.logger.Error(collectErr, fmt.Sprintf("failed to collect init script of \"%v\"", repository.ID))
			case ok:
				outcome.InitScript = &script
				sequence++
			default:
				service.logger.Info(fmt.Sprintf("no init script found in standard locations for \"%v\"", repository.Name))
			}
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}

	service.logSummary(report)
	return report, nil
}

func (service preparation) logSummary(report model.PreparationReport) {
	for _, outcome := range report.Failed() {
		service.logger.Error(outcome.Err, fmt.Sprintf("failed to prepare \"%v\"", outcome.Repository.ID))
	}
	service.logger.Info(report.Summary())
	if len(report.Failed()) == 0 {
		service.logger.Info("all repositories prepared successfully")
		return
	}
	service.logger.Warning(report.Err(), fmt.Sprintf("%v of %v repositories failed to prepare", len(report.Failed()), len(report.Outcomes)))
}

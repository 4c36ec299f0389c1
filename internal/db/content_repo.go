package db

import (
	"context"

	"onboarding/internal/types"
)

// ContentRepository serves learning plan content and introduction records.
type ContentRepository struct {
	db DBTX
}

var _ types.ContentSource = (*ContentRepository)(nil)

func NewContentRepository(db DBTX) *ContentRepository {
	return &ContentRepository{db: db}
}

// GetLearningPlanItems returns the plan ordered by week and position. It
// returns nil when the table is empty, meaning no plan has been configured.
func (r *ContentRepository) GetLearningPlanItems(ctx context.Context) ([]types.LearningPlanItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT week, topic, task_name, content, COALESCE(image_url, ''), COALESCE(resource_url, '')
		 FROM learning_plan_items
		 ORDER BY week, position, id`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query learning plan", err)
	}
	defer rows.Close()

	var items []types.LearningPlanItem
	for rows.Next() {
		var it types.LearningPlanItem
		if err := rows.Scan(&it.Week, &it.Topic, &it.TaskName, &it.Content, &it.ImageURL, &it.ResourceURL); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan learning plan item", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating learning plan", err)
	}
	return items, nil
}

// GetIntroductionRecordsPendingSurvey returns approved introductions whose
// survey has not been sent, oldest approval first.
func (r *ContentRepository) GetIntroductionRecordsPendingSurvey(ctx context.Context) ([]types.IntroductionRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT new_hire_id, manager_id, new_hire_name, approved_on, survey_status, survey_sent_on
		 FROM introductions
		 WHERE status = 'approved' AND survey_status = $1
		 ORDER BY approved_on, new_hire_id`,
		int(types.SurveyPending),
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query pending surveys", err)
	}
	defer rows.Close()

	var out []types.IntroductionRecord
	for rows.Next() {
		var rec types.IntroductionRecord
		var status int
		if err := rows.Scan(&rec.NewHireID, &rec.ManagerID, &rec.NewHireName, &rec.ApprovedOn, &status, &rec.SurveySentOn); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan introduction", err)
		}
		rec.SurveyStatus = types.SurveyStatus(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating introductions", err)
	}
	return out, nil
}

// UpsertIntroduction writes the survey fields of an introduction record.
func (r *ContentRepository) UpsertIntroduction(ctx context.Context, rec types.IntroductionRecord) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO introductions (new_hire_id, manager_id, new_hire_name, approved_on, status, survey_status, survey_sent_on)
		 VALUES ($1, $2, $3, $4, 'approved', $5, $6)
		 ON CONFLICT (new_hire_id, manager_id) DO UPDATE SET
		   survey_status = EXCLUDED.survey_status,
		   survey_sent_on = EXCLUDED.survey_sent_on`,
		rec.NewHireID, rec.ManagerID, rec.NewHireName, rec.ApprovedOn,
		int(rec.SurveyStatus), rec.SurveySentOn,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to upsert introduction", err)
	}
	return tag.RowsAffected() > 0, nil
}

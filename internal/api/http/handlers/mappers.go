package handlers

import (
	"time"

	"github.com/spec-kit/squad-service/internal/api/dto"
	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/calendar"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/quiz"
	"github.com/spec-kit/squad-service/internal/repository"
	"github.com/spec-kit/squad-service/internal/service"
)

const dateLayout = "2006-01-02"

func profileResponse(p *domain.Profile) dto.ProfileResponse {
	var birth *string
	if p.BirthDate != nil {
		s := p.BirthDate.Format(dateLayout)
		birth = &s
	}
	roles := p.Roles
	if roles == nil {
		roles = []domain.Role{}
	}
	return dto.ProfileResponse{
		ID:           p.ID,
		Email:        p.Email,
		FullName:     p.FullName,
		TeamID:       p.TeamID,
		Position:     p.Position,
		JerseyNumber: p.JerseyNumber,
		BirthDate:    birth,
		Phone:        p.Phone,
		Roles:        roles,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func sessionResponse(s *service.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Profile: profileResponse(s.Profile),
		Role:    s.Role,
		Auth:    dto.AuthResponse{Token: s.Token, ExpiresAt: s.ExpiresAt},
	}
}

func rosterEntries(players []domain.Profile) []dto.RosterEntry {
	out := make([]dto.RosterEntry, 0, len(players))
	for _, p := range players {
		out = append(out, dto.RosterEntry{
			ID:           p.ID,
			FullName:     p.FullName,
			Position:     p.Position,
			JerseyNumber: p.JerseyNumber,
		})
	}
	return out
}

func teamResponse(t *domain.Team, principal *auth.Principal) dto.TeamResponse {
	resp := dto.TeamResponse{
		ID:        t.ID,
		Name:      t.Name,
		Category:  t.Category,
		CoachID:   t.CoachID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if principal != nil && principal.IsCoach() && t.OwnedBy(principal.ID()) {
		resp.Code = t.Code
	}
	return resp
}

func activityResponse(a *domain.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:          a.ID,
		TeamID:      a.TeamID,
		Type:        a.Type,
		Title:       a.Title,
		Description: a.Description,
		Location:    a.Location,
		Opponent:    a.Opponent,
		StartsAt:    a.StartsAt,
		EndsAt:      a.EndsAt,
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func activityResponses(activities []domain.Activity) []dto.ActivityResponse {
	out := make([]dto.ActivityResponse, 0, len(activities))
	for i := range activities {
		out = append(out, activityResponse(&activities[i]))
	}
	return out
}

func calendarWeekResponse(week calendar.Week, activities []domain.Activity, loc *time.Location) dto.CalendarWeekResponse {
	days := make([]dto.CalendarDay, 0, len(week.Days))
	for _, day := range week.Days {
		blocks := make([]dto.CalendarBlock, 0, len(day.Blocks))
		for _, b := range day.Blocks {
			blocks = append(blocks, dto.CalendarBlock{
				ActivityID:    b.ItemID,
				Title:         b.Title,
				Type:          b.Kind,
				StartMinute:   b.StartMinute,
				EndMinute:     b.EndMinute,
				TopPercent:    b.TopPercent,
				HeightPercent: b.HeightPercent,
				ClippedStart:  b.ClippedStart,
				ClippedEnd:    b.ClippedEnd,
				Lane:          b.Lane,
				Lanes:         b.Lanes,
			})
		}
		days = append(days, dto.CalendarDay{Date: day.Date.Format(dateLayout), Blocks: blocks})
	}
	return dto.CalendarWeekResponse{
		WeekStart:    week.Start.Format(dateLayout),
		WeekEnd:      week.End.Format(dateLayout),
		Timezone:     loc.String(),
		DayStartHour: week.DayStartHour,
		DayEndHour:   week.DayEndHour,
		Days:         days,
		Activities:   activityResponses(activities),
	}
}

func callupItem(r *domain.CallupResponse) dto.CallupResponseItem {
	return dto.CallupResponseItem{
		ID:          r.ID,
		ActivityID:  r.ActivityID,
		PlayerID:    r.PlayerID,
		Status:      r.Status,
		Note:        r.Note,
		RespondedAt: r.RespondedAt,
	}
}

func callupOverviewResponse(o *service.CallupOverview) dto.CallupOverviewResponse {
	items := make([]dto.CallupResponseItem, 0, len(o.Responses))
	for i := range o.Responses {
		items = append(items, callupItem(&o.Responses[i]))
	}
	return dto.CallupOverviewResponse{
		Activity:  activityResponse(o.Activity),
		Responses: items,
		Summary:   o.Summary,
	}
}

func pendingCallups(rows []repository.PendingCallup) []dto.PendingCallupItem {
	out := make([]dto.PendingCallupItem, 0, len(rows))
	for i := range rows {
		out = append(out, dto.PendingCallupItem{
			Response: callupItem(&rows[i].Response),
			Activity: activityResponse(&rows[i].Activity),
		})
	}
	return out
}

func scheduledResponse(sc *domain.ScheduledCallup) dto.ScheduledCallupResponse {
	ids := sc.PlayerIDs
	if ids == nil {
		ids = []string{}
	}
	return dto.ScheduledCallupResponse{
		ID:         sc.ID,
		ActivityID: sc.ActivityID,
		TeamID:     sc.TeamID,
		PlayerIDs:  ids,
		SendAt:     sc.SendAt,
		Status:     sc.Status,
		SentAt:     sc.SentAt,
		LastError:  sc.LastError,
		CreatedBy:  sc.CreatedBy,
		CreatedAt:  sc.CreatedAt,
	}
}

// quizResponse hides answers unless the caller coaches the quiz's team.
func quizResponse(q *domain.CustomQuiz, withAnswers bool) dto.QuizResponse {
	questions := make([]dto.QuizQuestionResponse, 0, len(q.Questions))
	for _, question := range q.Questions {
		item := dto.QuizQuestionResponse{Prompt: question.Prompt, Options: question.Options}
		if withAnswers {
			correct := question.CorrectIndex
			item.CorrectIndex = &correct
			item.Explanation = question.Explanation
		}
		questions = append(questions, item)
	}
	return dto.QuizResponse{
		ID:          q.ID,
		TeamID:      q.TeamID,
		Title:       q.Title,
		Description: q.Description,
		Questions:   questions,
		CreatedBy:   q.CreatedBy,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func quizQuestions(in []dto.QuizQuestionRequest) []domain.QuizQuestion {
	out := make([]domain.QuizQuestion, 0, len(in))
	for _, q := range in {
		out = append(out, domain.QuizQuestion{
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
		})
	}
	return out
}

func assignmentResponse(a *domain.TheoryAssignment, now time.Time) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:          a.ID,
		QuizID:      a.QuizID,
		PlayerID:    a.PlayerID,
		TeamID:      a.TeamID,
		DueDate:     a.DueDate,
		Score:       a.Score,
		Total:       a.Total,
		Attempts:    a.Attempts,
		Completed:   a.Completed(),
		Overdue:     a.Overdue(now),
		CompletedAt: a.CompletedAt,
	}
}

func assignmentListing(rows []repository.AssignmentWithQuiz, now time.Time) []dto.AssignmentResponse {
	out := make([]dto.AssignmentResponse, 0, len(rows))
	for i := range rows {
		item := assignmentResponse(&rows[i].Assignment, now)
		item.QuizTitle = rows[i].QuizTitle
		item.Questions = rows[i].Questions
		out = append(out, item)
	}
	return out
}

func attemptResponse(a *quiz.Attempt, step *service.AttemptStep, now time.Time) dto.AttemptResponse {
	resp := dto.AttemptResponse{
		ID:           a.ID,
		AssignmentID: a.AssignmentID,
		QuizID:       a.QuizID,
		Phase:        a.Phase,
		StartedAt:    a.StartedAt,
		FinishedAt:   a.FinishedAt,
	}
	if view, err := a.Current(); err == nil {
		resp.Question = &view
	}
	if fb, err := a.Feedback(); err == nil {
		resp.Feedback = &fb
	}
	if result, err := a.Result(); err == nil {
		resp.Result = &result
	}
	if step != nil && step.Assignment != nil {
		assignment := assignmentResponse(step.Assignment, now)
		resp.Assignment = &assignment
	}
	return resp
}

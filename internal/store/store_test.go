package store

import (
	"testing"

	"github.com/testme-app/backend/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func insertTestUser(t *testing.T, s *Store, username string, role model.UserRole) string {
	t.Helper()
	id, err := s.CreateUser(model.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: "hash",
		Role:         role,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("insertTestUser: %v", err)
	}
	return id
}

func insertTestSubject(t *testing.T, s *Store, userID, name string) string {
	t.Helper()
	id, err := s.CreateSubject(model.Subject{
		UserID:   userID,
		Name:     name,
		Semester: "fall",
		Year:     2026,
	})
	if err != nil {
		t.Fatalf("insertTestSubject: %v", err)
	}
	return id
}

func testQuestions() []model.Question {
	return []model.Question{
		{ID: 1, Question: "What is a goroutine?", Type: model.QuestionShortAnswer, Points: 10},
		{ID: 2, Question: "Pick the channel primitive", Type: model.QuestionMultipleChoice, Options: []string{"a", "b", "c", "d"}, Points: 20},
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	count, err := s.UserCount()
	if err != nil {
		t.Fatalf("UserCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 users, got %d", count)
	}

	id := insertTestUser(t, s, "alice", model.UserRoleStudent)

	u, err := s.GetUserByID(id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if u == nil || u.Username != "alice" {
		t.Fatalf("GetUserByID = %+v", u)
	}

	u, err = s.GetUserByUsername("alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u == nil || u.ID != id {
		t.Fatalf("GetUserByUsername = %+v", u)
	}

	// Not found returns nil, nil.
	u, err = s.GetUserByUsername("nobody")
	if err != nil || u != nil {
		t.Fatalf("expected nil, nil for missing user, got %+v, %v", u, err)
	}

	// Duplicate username rejected.
	if _, err := s.CreateUser(model.User{Username: "alice", PasswordHash: "x"}); err == nil {
		t.Error("expected error for duplicate username")
	}

	if err := s.ToggleUserActive(id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, _ = s.GetUserByID(id)
	if u.Active {
		t.Error("expected user to be inactive after toggle")
	}
}

func TestSubjectCRUD(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleStudent)

	id := insertTestSubject(t, s, userID, "Networks")

	sub, err := s.GetSubject(id)
	if err != nil {
		t.Fatalf("GetSubject: %v", err)
	}
	if sub == nil || sub.Name != "Networks" || sub.Year != 2026 {
		t.Fatalf("GetSubject = %+v", sub)
	}
	if sub.UpdatedAt != nil {
		t.Errorf("fresh subject should have nil UpdatedAt, got %v", sub.UpdatedAt)
	}

	sub.Name = "Computer Networks"
	if err := s.UpdateSubject(*sub); err != nil {
		t.Fatalf("UpdateSubject: %v", err)
	}
	sub, _ = s.GetSubject(id)
	if sub.Name != "Computer Networks" {
		t.Errorf("name after update = %q", sub.Name)
	}
	if sub.UpdatedAt == nil {
		t.Error("UpdatedAt should be set after update")
	}

	// Listing is per owner.
	otherID := insertTestUser(t, s, "bob", model.UserRoleStudent)
	insertTestSubject(t, s, otherID, "Databases")

	list, err := s.ListSubjects(userID)
	if err != nil {
		t.Fatalf("ListSubjects: %v", err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Fatalf("ListSubjects = %+v", list)
	}

	if err := s.DeleteSubject(id); err != nil {
		t.Fatalf("DeleteSubject: %v", err)
	}
	sub, err = s.GetSubject(id)
	if err != nil || sub != nil {
		t.Fatalf("expected nil, nil after delete, got %+v, %v", sub, err)
	}
}

func TestPDFCRUD(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleStudent)
	subjectID := insertTestSubject(t, s, userID, "Networks")

	p := model.PDF{
		ID:               "pdf-1",
		SubjectID:        subjectID,
		UserID:           userID,
		OriginalFilename: "lecture.pdf",
		UniqueFilename:   "pdf-1.pdf",
		StoragePath:      "pdfs/" + userID + "/pdf-1.pdf",
		Size:             1234,
		Status:           "uploaded",
	}
	if err := s.CreatePDF(p); err != nil {
		t.Fatalf("CreatePDF: %v", err)
	}

	got, err := s.GetPDF("pdf-1")
	if err != nil {
		t.Fatalf("GetPDF: %v", err)
	}
	if got == nil || got.OriginalFilename != "lecture.pdf" || got.Size != 1234 {
		t.Fatalf("GetPDF = %+v", got)
	}
	if got.UploadedAt.IsZero() {
		t.Error("UploadedAt should be set")
	}

	list, err := s.ListPDFs(subjectID)
	if err != nil {
		t.Fatalf("ListPDFs: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListPDFs returned %d records", len(list))
	}

	if err := s.UpdatePDFStatus("pdf-1", "processed"); err != nil {
		t.Fatalf("UpdatePDFStatus: %v", err)
	}
	got, _ = s.GetPDF("pdf-1")
	if got.Status != "processed" {
		t.Errorf("status = %q", got.Status)
	}

	if err := s.DeletePDF("pdf-1"); err != nil {
		t.Fatalf("DeletePDF: %v", err)
	}
	got, err = s.GetPDF("pdf-1")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil after delete, got %+v, %v", got, err)
	}
}

func TestExamRoundTrip(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleStudent)
	subjectID := insertTestSubject(t, s, userID, "Networks")

	examID, err := s.CreateExam(model.Exam{
		SubjectID:     subjectID,
		PDFID:         "pdf-1",
		UserID:        userID,
		Questions:     testQuestions(),
		TotalPoints:   30,
		EstimatedTime: 45,
		NumQuestions:  2,
		Difficulty:    model.DifficultyMedium,
		AIProvider:    "gpt",
		Status:        "ready",
	})
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}

	e, err := s.GetExam(examID)
	if err != nil {
		t.Fatalf("GetExam: %v", err)
	}
	if e == nil {
		t.Fatal("GetExam returned nil")
	}
	if len(e.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(e.Questions))
	}
	if e.Questions[1].Options[2] != "c" {
		t.Errorf("options not round-tripped: %+v", e.Questions[1])
	}
	if e.TotalPoints != 30 || e.AIProvider != "gpt" || e.Difficulty != model.DifficultyMedium {
		t.Errorf("exam fields = %+v", e)
	}

	list, err := s.ListExams(subjectID)
	if err != nil {
		t.Fatalf("ListExams: %v", err)
	}
	if len(list) != 1 || list[0].ID != examID {
		t.Fatalf("ListExams = %+v", list)
	}

	if err := s.UpdateExamStatus(examID, "graded"); err != nil {
		t.Fatalf("UpdateExamStatus: %v", err)
	}
	e, _ = s.GetExam(examID)
	if e.Status != "graded" {
		t.Errorf("status = %q", e.Status)
	}
}

func TestGradingRoundTrip(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleStudent)
	subjectID := insertTestSubject(t, s, userID, "Networks")
	examID, err := s.CreateExam(model.Exam{
		SubjectID: subjectID, PDFID: "pdf-1", UserID: userID,
		Questions: testQuestions(), TotalPoints: 30, NumQuestions: 2,
		Difficulty: model.DifficultyEasy, Status: "ready",
	})
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}

	// No submissions yet.
	g, err := s.LatestGradingForExam(examID)
	if err != nil || g != nil {
		t.Fatalf("expected nil, nil before grading, got %+v, %v", g, err)
	}

	correct := true
	result := model.GradingResult{
		TotalScore: 25,
		MaxScore:   30,
		Percentage: 83.33,
		QuestionResults: []model.QuestionResult{
			{QuestionID: 1, Score: 10, MaxPoints: 10, Feedback: "right", IsCorrect: &correct},
			{QuestionID: 2, Score: 15, MaxPoints: 20, Feedback: "partial"},
		},
		AIProvider: "gpt",
	}
	gradingID, err := s.CreateGrading(model.Grading{ExamID: examID, UserID: userID, Result: result})
	if err != nil {
		t.Fatalf("CreateGrading: %v", err)
	}

	g, err = s.GetGrading(gradingID)
	if err != nil {
		t.Fatalf("GetGrading: %v", err)
	}
	if g == nil || g.Result.Percentage != 83.33 {
		t.Fatalf("GetGrading = %+v", g)
	}
	if g.Result.QuestionResults[0].IsCorrect == nil || !*g.Result.QuestionResults[0].IsCorrect {
		t.Errorf("IsCorrect pointer not round-tripped: %+v", g.Result.QuestionResults[0])
	}

	latest, err := s.LatestGradingForExam(examID)
	if err != nil {
		t.Fatalf("LatestGradingForExam: %v", err)
	}
	if latest == nil || latest.ID != gradingID {
		t.Fatalf("LatestGradingForExam = %+v", latest)
	}
}

func TestDeleteSubjectCascades(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleStudent)
	subjectID := insertTestSubject(t, s, userID, "Networks")

	if err := s.CreatePDF(model.PDF{ID: "pdf-1", SubjectID: subjectID, UserID: userID, OriginalFilename: "l.pdf", UniqueFilename: "pdf-1.pdf", StoragePath: "p", Status: "uploaded"}); err != nil {
		t.Fatalf("CreatePDF: %v", err)
	}
	examID, err := s.CreateExam(model.Exam{
		SubjectID: subjectID, PDFID: "pdf-1", UserID: userID,
		Questions: testQuestions(), Difficulty: model.DifficultyEasy, Status: "ready",
	})
	if err != nil {
		t.Fatalf("CreateExam: %v", err)
	}
	if _, err := s.CreateGrading(model.Grading{ExamID: examID, UserID: userID, Result: model.GradingResult{MaxScore: 30}}); err != nil {
		t.Fatalf("CreateGrading: %v", err)
	}

	if err := s.DeleteSubject(subjectID); err != nil {
		t.Fatalf("DeleteSubject: %v", err)
	}

	if p, _ := s.GetPDF("pdf-1"); p != nil {
		t.Error("pdf should be gone after subject delete")
	}
	if e, _ := s.GetExam(examID); e != nil {
		t.Error("exam should be gone after subject delete")
	}
	if g, _ := s.LatestGradingForExam(examID); g != nil {
		t.Error("grading should be gone after subject delete")
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)
	userID := insertTestUser(t, s, "alice", model.UserRoleStudent)

	token, err := s.CreateAuthSession(userID)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(token))
	}

	sess, err := s.GetAuthSession(token)
	if err != nil {
		t.Fatalf("GetAuthSession: %v", err)
	}
	if sess == nil || sess.UserID != userID {
		t.Fatalf("GetAuthSession = %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	sess, err = s.GetAuthSession(token)
	if err != nil || sess != nil {
		t.Fatalf("expected nil, nil after delete, got %+v, %v", sess, err)
	}

	// Unknown token.
	sess, err = s.GetAuthSession("bogus")
	if err != nil || sess != nil {
		t.Fatalf("expected nil, nil for unknown token, got %+v, %v", sess, err)
	}
}

package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/submission"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_submissionApi_flow(t *testing.T) {
	deps := setup(t)

	teacher := testutil.CreateUser(t, deps.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, deps.usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	room := testutil.CreateClassroom(t, deps.roomRepo, teacher, "Biology", "BIO101")
	testutil.Enroll(t, deps.roomRepo, room, student)
	asg := testutil.CreateAssignment(t, deps.asgRepo, room, "Homework 1",
		time.Now().UTC().Add(24*time.Hour), 100, false, 0, assignment.StatusPublished)

	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, student)

	// student submits
	req, rec := newAuthRequest(http.MethodPut, "/v1/assignments/"+asg.ID+"/submission", studentToken,
		marchallObj(t, submission.UpsertSubmission{Content: "my essay", Status: submission.StatusSubmitted}))
	deps.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var sub submission.Graded
	if err := json.Unmarshal(rec.Body.Bytes(), &sub); err != nil {
		t.Fatalf("unmarshalling Graded: %v", err)
	}
	if sub.Status != submission.StatusSubmitted || sub.SubmittedAt == nil {
		t.Fatalf("sub = %+v; want a stamped submitted submission", sub)
	}
	if sub.FinalGrade != nil {
		t.Errorf("FinalGrade = %v; want nil before grading", sub.FinalGrade)
	}

	// student reads it back
	req, rec = newAuthRequest(http.MethodGet, "/v1/assignments/"+asg.ID+"/submission", studentToken)
	deps.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// grade out of bounds is a field error
	req, rec = newAuthRequest(http.MethodPost, "/v1/submissions/"+sub.ID+"/grade", teacherToken,
		marchallObj(t, map[string]interface{}{"grade": 101}))
	deps.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"grade": "must be between 0 and 100"}),
	}, rec)

	// grade
	req, rec = newAuthRequest(http.MethodPost, "/v1/submissions/"+sub.ID+"/grade", teacherToken,
		marchallObj(t, map[string]interface{}{"grade": 85, "feedback": "solid work"}))
	deps.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var graded submission.Graded
	if err := json.Unmarshal(rec.Body.Bytes(), &graded); err != nil {
		t.Fatalf("unmarshalling Graded: %v", err)
	}
	if graded.Status != submission.StatusGraded {
		t.Errorf("Status = %q; want %q", graded.Status, submission.StatusGraded)
	}
	if graded.FinalGrade == nil || *graded.FinalGrade != 85 {
		t.Errorf("FinalGrade = %v; want 85", graded.FinalGrade)
	}
	if graded.GradePercentage == nil || *graded.GradePercentage != 85 {
		t.Errorf("GradePercentage = %v; want 85", graded.GradePercentage)
	}

	// a graded submission is locked for the student
	req, rec = newAuthRequest(http.MethodPut, "/v1/assignments/"+asg.ID+"/submission", studentToken,
		marchallObj(t, submission.UpsertSubmission{Content: "let me redo it"}))
	deps.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: "cannot modify a submission after grading"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/submissions/"+sub.ID, studentToken)
	deps.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: "cannot delete a submission after grading"}),
	}, rec)

	// return it to the student
	req, rec = newAuthRequest(http.MethodPost, "/v1/submissions/"+sub.ID+"/return", teacherToken)
	deps.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v; want %v; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var returned submission.Graded
	if err := json.Unmarshal(rec.Body.Bytes(), &returned); err != nil {
		t.Fatalf("unmarshalling Graded: %v", err)
	}
	if returned.Status != submission.StatusReturned {
		t.Errorf("Status = %q; want %q", returned.Status, submission.StatusReturned)
	}
}

func Test_submissionApi_access(t *testing.T) {
	deps := setup(t)

	teacher := testutil.CreateUser(t, deps.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, deps.usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	outsider := testutil.CreateUser(t, deps.usrRepo, "Outsider", "outsider", "outsider@test.cd", "", []string{user.RoleStudent}, true)
	room := testutil.CreateClassroom(t, deps.roomRepo, teacher, "Biology", "BIO101")
	testutil.Enroll(t, deps.roomRepo, room, student)
	asg := testutil.CreateAssignment(t, deps.asgRepo, room, "Homework 1",
		time.Now().UTC().Add(24*time.Hour), 100, false, 0, assignment.StatusPublished)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodGet, path: "/v1/assignments/" + asg.ID + "/submissions",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			// the assignment exists, so the caller learns "forbidden", not "not found"
			name: "listing submissions is teacher only", method: http.MethodGet,
			path: "/v1/assignments/" + asg.ID + "/submissions", token: getToken(t, student),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "only the assignment's teacher can grade its submissions"}),
		},
		{
			name: "unknown assignment is a 404", method: http.MethodGet, path: "/v1/assignments/nope/submissions",
			token:    getToken(t, teacher),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "assignment not found"}),
		},
		{
			name: "unenrolled student cannot submit", method: http.MethodPut,
			path: "/v1/assignments/" + asg.ID + "/submission", token: getToken(t, outsider),
			body:     marchallObj(t, submission.UpsertSubmission{Content: "sneaky"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "you are not enrolled in this classroom"}),
		},
		{
			name: "teacher lists an empty set", method: http.MethodGet,
			path: "/v1/assignments/" + asg.ID + "/submissions", token: getToken(t, teacher),
			wantData: []byte("[]"),
		},
		{
			name: "classroom history is private", method: http.MethodGet,
			path:     "/v1/classrooms/" + room.ID + "/students/" + student.ID + "/submissions",
			token:    getToken(t, outsider),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "you do not have access to this classroom"}),
		},
		{
			name: "student sees their own classroom history", method: http.MethodGet,
			path:  "/v1/classrooms/" + room.ID + "/students/" + student.ID + "/submissions",
			token: getToken(t, student), wantData: []byte("[]"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			deps.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
	testutil "github.com/trezcool/darasa/tests"
)

func Test_classroomApi_create(t *testing.T) {
	deps := setup(t)

	teacher := testutil.CreateUser(t, deps.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, deps.usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)

	tests := []httpTest{
		{
			name: "auth required", body: marchallObj(t, classroom.NewClassroom{Name: "Biology"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "name is required", token: getToken(t, teacher), body: marchallObj(t, classroom.NewClassroom{}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "teachers only", token: getToken(t, student), body: marchallObj(t, classroom.NewClassroom{Name: "Biology"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "only teachers can perform this action"}),
		},
		{
			name: "created", token: getToken(t, teacher),
			body:     marchallObj(t, classroom.NewClassroom{Name: "Biology", Subject: "Science"}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/classrooms", tt.token, tt.body)
			deps.app.ServeHTTP(rec, req)

			checkCodeAndData(t, tt, rec)
			if tt.wantCode == http.StatusCreated {
				var room classroom.Classroom
				if err := json.Unmarshal(rec.Body.Bytes(), &room); err != nil {
					t.Fatalf("unmarshalling Classroom: %v", err)
				}
				if room.TeacherID != teacher.ID {
					t.Errorf("TeacherID = %q; want %q", room.TeacherID, teacher.ID)
				}
				if len(room.JoinCode) != 6 {
					t.Errorf("JoinCode = %q; want 6 chars", room.JoinCode)
				}
			}
		})
	}
}

func Test_classroomApi_joinAndRoster(t *testing.T) {
	deps := setup(t)

	teacher := testutil.CreateUser(t, deps.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, deps.usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	room := testutil.CreateClassroom(t, deps.roomRepo, teacher, "Biology", "BIO101")

	marchallJoin := func(code string) []byte {
		return marchallObj(t, JoinClassroomRequest{Code: code})
	}

	tests := []httpTest{
		{
			name: "code must be 6 chars", method: http.MethodPost, path: "/v1/classrooms/join",
			token: getToken(t, student), body: marchallJoin("ABC"), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown code", method: http.MethodPost, path: "/v1/classrooms/join",
			token: getToken(t, student), body: marchallJoin("NOPE00"),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "classroom not found"}),
		},
		{
			name: "join", method: http.MethodPost, path: "/v1/classrooms/join",
			token: getToken(t, student), body: marchallJoin("bio101"),
			wantData: marchallObj(t, room),
		},
		{
			name: "joining twice", method: http.MethodPost, path: "/v1/classrooms/join",
			token: getToken(t, student), body: marchallJoin("BIO101"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "already enrolled in this classroom"}),
		},
		{
			name: "teacher sees the roster", method: http.MethodGet, path: "/v1/classrooms/" + room.ID + "/students",
			token: getToken(t, teacher), wantData: marchallObj(t, []user.User{student}),
		},
		{
			name: "enrolled student retrieves the room", method: http.MethodGet, path: "/v1/classrooms/" + room.ID,
			token: getToken(t, student), wantData: marchallObj(t, room),
		},
		{
			name: "leave", method: http.MethodPost, path: "/v1/classrooms/" + room.ID + "/leave",
			token: getToken(t, student), wantCode: http.StatusNoContent,
		},
		{
			name: "no access once gone", method: http.MethodGet, path: "/v1/classrooms/" + room.ID,
			token:    getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "you do not have access to this classroom"}),
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

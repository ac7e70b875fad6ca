package showcase

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showcase/core/profile/adapters/rest"
	"showcase/core/profile/adapters/restclient"
	"showcase/modules/api/serde"
	"showcase/modules/github"
	"showcase/modules/middleware/problem"
)

type fakeGitHub struct {
	users map[string]*github.User
	err   error
}

func (f *fakeGitHub) GetUser(_ context.Context, username string) (*github.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[username]
	if !ok {
		return nil, github.ErrUserNotFound
	}
	return u, nil
}

type fakeBackend struct {
	mu    sync.Mutex
	saved map[string]restclient.SaveRequest
	err   error
}

func (f *fakeBackend) SaveProfile(_ context.Context, p restclient.SaveRequest) (*rest.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.saved == nil {
		f.saved = map[string]restclient.SaveRequest{}
	}
	if _, dup := f.saved[p.Login]; dup {
		return nil, &restclient.ProblemError{
			StatusCode: http.StatusConflict,
			Problem:    problem.Conflict("profile with this login already exists"),
		}
	}
	f.saved[p.Login] = p
	return &rest.Profile{Login: p.Login}, nil
}

type alert struct{ title, message string }

type recordingAlerter struct{ alerts []alert }

func (r *recordingAlerter) Alert(title, message string) {
	r.alerts = append(r.alerts, alert{title, message})
}

func octocatUser() *github.User {
	loc := "San Francisco"
	return &github.User{
		Login:       "octocat",
		AvatarURL:   "https://avatars.githubusercontent.com/u/583231?v=4",
		HTMLURL:     "https://github.com/octocat",
		Location:    &loc,
		Followers:   3938,
		Following:   9,
		PublicRepos: 8,
	}
}

func newScreen() (*Screen, *fakeGitHub, *fakeBackend, *recordingAlerter) {
	gh := &fakeGitHub{users: map[string]*github.User{"octocat": octocatUser()}}
	be := &fakeBackend{}
	al := &recordingAlerter{}
	return NewScreen(gh, be, al), gh, be, al
}

func TestSearch_DisplaysMappedProfile(t *testing.T) {
	s, _, _, al := newScreen()

	require.NoError(t, s.Search(context.Background(), "  octocat "))

	st := s.State()
	require.NotNil(t, st.Profile)
	assert.Equal(t, "octocat", st.Username)
	assert.Equal(t, "octocat", st.Profile.Name, "name falls back to login")
	assert.Equal(t, "https://github.com/octocat", st.Profile.HTMLURL)
	assert.False(t, st.Loading)
	assert.Empty(t, al.alerts)
}

func TestSearch_BlankInputIsIgnored(t *testing.T) {
	s, _, _, al := newScreen()
	require.NoError(t, s.Search(context.Background(), "octocat"))

	require.NoError(t, s.Search(context.Background(), "   "))
	assert.NotNil(t, s.State().Profile)
	assert.Empty(t, al.alerts)
}

func TestSearch_UnknownUserAlertsAndClearsProfile(t *testing.T) {
	s, _, _, al := newScreen()
	require.NoError(t, s.Search(context.Background(), "octocat"))
	require.NotNil(t, s.State().Profile)

	err := s.Search(context.Background(), "ghost-user-xyz")
	assert.ErrorIs(t, err, github.ErrUserNotFound)

	st := s.State()
	assert.Nil(t, st.Profile)
	assert.False(t, st.Loading)
	assert.Equal(t, []alert{{"Error", "GitHub user not found"}}, al.alerts)
}

func TestSearch_NetworkErrorUsesSameAlert(t *testing.T) {
	s, gh, _, al := newScreen()
	gh.err = errors.New("dial tcp: connection refused")

	require.Error(t, s.Search(context.Background(), "octocat"))
	assert.Nil(t, s.State().Profile)
	assert.Equal(t, []alert{{"Error", "GitHub user not found"}}, al.alerts)
}

func TestSave(t *testing.T) {
	s, _, be, al := newScreen()

	require.NoError(t, s.Save(context.Background()), "no profile is a no-op")
	assert.Empty(t, al.alerts)

	require.NoError(t, s.Search(context.Background(), "octocat"))
	require.NoError(t, s.Save(context.Background()))
	assert.Equal(t, alert{"Success", "Profile saved successfully"}, al.alerts[len(al.alerts)-1])

	saved := be.saved["octocat"]
	require.NotNil(t, saved.Name)
	assert.Equal(t, "octocat", *saved.Name)
	assert.Equal(t, int64(8), saved.PublicRepos)

	require.Error(t, s.Save(context.Background()))
	assert.Equal(t, alert{"Error", "profile with this login already exists"}, al.alerts[len(al.alerts)-1])
	assert.False(t, s.State().Saving)
}

func TestSave_TransportFailure(t *testing.T) {
	s, _, be, al := newScreen()
	be.err = errors.New("connection refused")

	require.NoError(t, s.Search(context.Background(), "octocat"))
	require.Error(t, s.Save(context.Background()))
	assert.Equal(t, alert{"Error", "Failed to save"}, al.alerts[len(al.alerts)-1])
}

func TestRender(t *testing.T) {
	s, _, _, _ := newScreen()

	var buf bytes.Buffer
	require.NoError(t, s.Render(&buf))
	assert.Empty(t, buf.String())

	require.NoError(t, s.Search(context.Background(), "octocat"))
	require.NoError(t, s.Render(&buf))
	out := buf.String()
	assert.Contains(t, out, "@octocat")
	assert.Contains(t, out, "Repos: 8  Followers: 3938  Following: 9")
	assert.Contains(t, out, "Location: San Francisco")
}

func TestFromUser_PrefersName(t *testing.T) {
	u := octocatUser()
	u.Name = serde.Ptr("The Octocat")
	assert.Equal(t, "The Octocat", FromUser(u).Name)

	u.Name = serde.Ptr("")
	assert.Equal(t, "octocat", FromUser(u).Name)
}

func TestImport(t *testing.T) {
	gh := &fakeGitHub{users: map[string]*github.User{
		"octocat": octocatUser(),
		"hubot":   {Login: "hubot", AvatarURL: "https://a.example/h.png"},
	}}
	be := &fakeBackend{}

	results := NewImporter(gh, be, 2).Import(context.Background(), "octocat", " ", "ghost", "hubot")
	require.Len(t, results, 3)

	assert.Equal(t, "octocat", results[0].Username)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, github.ErrUserNotFound)
	assert.Equal(t, "hubot", results[2].Username)
	require.NotNil(t, results[2].Saved)
	assert.Len(t, be.saved, 2)
}

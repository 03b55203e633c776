package chaoxing

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

// ══════════════════════════════════════════════════════════════════════════════
// TEST FIXTURES
// ══════════════════════════════════════════════════════════════════════════════

const courseListHTML = `<html><body><ul>
<li class="course">
  <input class="clazzId" value="1001"/>
  <input class="courseId" value="2001"/>
  <a class="color1" href="https://mooc1.chaoxing.com/visit/stucoursemiddle?courseid=2001&clazzid=1001&cpi=3001&ismooc2=1">go</a>
  <span class="course-name">高等数学</span>
  <p class="line2 color3">王老师</p>
</li>
<li class="course">
  <input class="clazzId" value="1002"/>
  <input class="courseId" value="2002"/>
  <a class="color1" href="https://mooc1.chaoxing.com/visit/stucoursemiddle?courseid=2002&clazzid=1002&cpi=3002&ismooc2=1">go</a>
  <span class="course-name">大学英语</span>
  <p class="line2 color3">李老师</p>
</li>
<li class="course">
  <input class="clazzId" value="1003"/>
  <input class="courseId" value="2003"/>
  <a class="color1" href="https://mooc1.chaoxing.com/visit/stucoursemiddle?courseid=2003&clazzid=1003&cpi=3003&ismooc2=1">go</a>
  <span class="course-name">线性代数</span>
</li>
</ul></body></html>`

const courseListMissingClassHTML = `<ul>
<li class="course">
  <input class="clazzId" value="1001"/>
  <input class="courseId" value="2001"/>
  <a class="color1" href="/visit?courseid=2001&cpi=3001">go</a>
  <span class="course-name">高等数学</span>
</li>
<li class="course">
  <input class="courseId" value="2002"/>
  <a class="color1" href="/visit?courseid=2002&cpi=3002">go</a>
  <span class="course-name">大学英语</span>
</li>
</ul>`

const profileHTML = `<html><body>
<div class="user-info"><p class="user-name"> 张三 </p></div>
<a dataurl="http://hunauxs.portal.chaoxing.com/?s=9f3a0c2b7e">门户</a>
</body></html>`

const redirectPageHTML = `<html><body>
<input type="hidden" id="enc" value="e1"/>
<input type="hidden" id="cfid" value="2790"/>
<input type="hidden" id="bbsid" value="b1"/>
<input type="hidden" id="fid" value="2790"/>
<input type="hidden" id="workEnc" value="w1"/>
</body></html>`

// ══════════════════════════════════════════════════════════════════════════════
// MOCK HTTP
// ══════════════════════════════════════════════════════════════════════════════

// mockRoundTripper answers requests through handler and records them.
type mockRoundTripper struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	handler  func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	var body string
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)
	m.mu.Unlock()
	return m.handler(req)
}

func (m *mockRoundTripper) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockRoundTripper) CallsTo(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.requests {
		if r.URL.Path == path {
			n++
		}
	}
	return n
}

func newResponse(req *http.Request, status int, body string, cookies ...*http.Cookie) *http.Response {
	header := http.Header{}
	for _, c := range cookies {
		header.Add("Set-Cookie", c.String())
	}
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}
}

// newTestClient builds a Client on top of rt with no throttling.
func newTestClient(t *testing.T, rt http.RoundTripper, store SessionStore) *Client {
	t.Helper()
	cfg := DefaultClientConfig()
	cfg.RequestDelay = 0
	cfg.HTTPClient = &http.Client{Transport: rt}
	cfg.SessionStore = store
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

// ══════════════════════════════════════════════════════════════════════════════
// FAKE PLATFORM
// ══════════════════════════════════════════════════════════════════════════════

const (
	pathLogin       = "/fanyalogin"
	pathProfile     = "/base"
	pathInteraction = "/visit/interaction"
	pathCourseList  = "/mooc2-ans/visit/courselistdata"
	pathRedirect    = "/visit/stucoursemiddle"
	pathActiveList  = "/v2/apis/active/student/activelist"
	pathActiveInfo  = "/v2/apis/active/getPPTActiveInfo"
	pathSignIn      = "/v2/apis/sign/signIn"
)

// fakePlatform routes requests by path. A profile request is answered
// with profileHTML only when its Cookie header carries liveCookie.
type fakePlatform struct {
	loginBody    string
	liveCookie   string
	redirectBody string
	activeList   string
	activeInfo   string
	infoByID     map[string]string
	signInStatus int
	signInBody   string
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		loginBody:    `{"url":"","status":true}`,
		liveCookie:   "UID=42",
		redirectBody: redirectPageHTML,
		activeList:   `{"result":1,"msg":null,"data":{"activeList":[]}}`,
		activeInfo:   `{"result":1,"data":{"locationRange":0,"ifphoto":0,"ifopenAddress":0}}`,
		signInStatus: http.StatusOK,
		signInBody:   `{"result":1,"msg":"success"}`,
	}
}

func (p *fakePlatform) handle(req *http.Request) (*http.Response, error) {
	switch req.URL.Path {
	case pathLogin:
		return newResponse(req, http.StatusOK, p.loginBody,
			&http.Cookie{Name: "UID", Value: "42"},
			&http.Cookie{Name: "fid", Value: "2790"},
		), nil
	case pathProfile:
		if strings.Contains(req.Header.Get("Cookie"), p.liveCookie) {
			return newResponse(req, http.StatusOK, profileHTML,
				&http.Cookie{Name: "fid", Value: "2791"},
			), nil
		}
		return newResponse(req, http.StatusOK, "<html>请登录</html>"), nil
	case pathInteraction:
		return newResponse(req, http.StatusOK, "ok",
			&http.Cookie{Name: "k8s", Value: "mooc"},
		), nil
	case pathCourseList:
		return newResponse(req, http.StatusOK, courseListHTML), nil
	case pathRedirect:
		return newResponse(req, http.StatusOK, p.redirectBody), nil
	case pathActiveList:
		return newResponse(req, http.StatusOK, p.activeList), nil
	case pathActiveInfo:
		if body, ok := p.infoByID[req.URL.Query().Get("activeId")]; ok {
			return newResponse(req, http.StatusOK, body), nil
		}
		return newResponse(req, http.StatusOK, p.activeInfo), nil
	case pathSignIn:
		return newResponse(req, p.signInStatus, p.signInBody), nil
	}
	return newResponse(req, http.StatusNotFound, "not found"), nil
}

func (p *fakePlatform) roundTripper() *mockRoundTripper {
	return &mockRoundTripper{handler: p.handle}
}

func testCreds() Credentials {
	return Credentials{Phone: "18212345678", Password: "secret-pass"}
}

package chaoxing

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xxt-hub/xxt-signin/internal/domain/course"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAGE EXTRACTION
// Pure functions over platform HTML. Every lookup that can miss reports
// the miss explicitly.
// ══════════════════════════════════════════════════════════════════════════════

// LoginParamKey names an <input id=...> on the course redirect page.
type LoginParamKey string

const (
	ParamEnc     LoginParamKey = "enc"
	ParamCFID    LoginParamKey = "cfid"
	ParamBBSID   LoginParamKey = "bbsid"
	ParamFID     LoginParamKey = "fid"
	ParamOpenc   LoginParamKey = "openc"
	ParamOldEnc  LoginParamKey = "oldenc"
	ParamWorkEnc LoginParamKey = "workEnc"
	ParamExamEnc LoginParamKey = "examEnc"
)

// LoginParamKeys is the fixed set read by ExtractLoginParams.
var LoginParamKeys = []LoginParamKey{
	ParamEnc, ParamCFID, ParamBBSID, ParamFID,
	ParamOpenc, ParamOldEnc, ParamWorkEnc, ParamExamEnc,
}

// LoginParams holds the hidden inputs found on the course redirect page.
// Keys that were absent are omitted.
type LoginParams map[LoginParamKey]string

// Get returns the value and whether it was present.
func (p LoginParams) Get(k LoginParamKey) (string, bool) {
	v, ok := p[k]
	return v, ok
}

var portalTokenPattern = regexp.MustCompile(`s=([0-9a-f]+)`)

func parseDocument(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// ExtractCourses parses the course list page. classId, courseId, cpi and
// the course name are mandatory; the teacher is optional. The first item
// missing a mandatory field fails the whole call with ErrCourseList.
func ExtractCourses(html string) ([]*course.Course, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, newError("ExtractCourses", ErrCourseList, "parse course page", err)
	}

	items := doc.Find("li.course")
	courses := make([]*course.Course, 0, items.Length())

	var itemErr error
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		classID, ok := item.Find("input.clazzId").First().Attr("value")
		if !ok || strings.TrimSpace(classID) == "" {
			itemErr = missingCourseField(i, "clazzId")
			return false
		}

		courseID, ok := item.Find("input.courseId").First().Attr("value")
		if !ok {
			itemErr = missingCourseField(i, "courseId")
			return false
		}

		href, ok := item.Find("a.color1").First().Attr("href")
		if !ok {
			itemErr = missingCourseField(i, "course link")
			return false
		}
		cpi, ok := cpiFromHref(href)
		if !ok {
			itemErr = missingCourseField(i, "cpi")
			return false
		}

		nameSel := item.Find("span.course-name").First()
		if nameSel.Length() == 0 {
			itemErr = missingCourseField(i, "course-name")
			return false
		}

		teacher := item.Find("p.line2.color3").First().Text()

		c, err := course.New(courseID, classID, cpi, nameSel.Text(), teacher)
		if err != nil {
			itemErr = newError("ExtractCourses", ErrCourseList, fmt.Sprintf("course item %d", i), err)
			return false
		}
		courses = append(courses, c)
		return true
	})
	if itemErr != nil {
		return nil, itemErr
	}

	return courses, nil
}

func missingCourseField(index int, field string) error {
	return newError("ExtractCourses", ErrCourseList,
		fmt.Sprintf("course item %d: missing %s", index, field), nil)
}

// cpiFromHref reads the cpi query parameter of a course link.
func cpiFromHref(href string) (string, bool) {
	if u, err := url.Parse(href); err == nil {
		if v := u.Query().Get("cpi"); v != "" {
			return v, true
		}
	}
	// links are sometimes not valid URLs; fall back to plain scanning
	_, rest, found := strings.Cut(href, "&cpi=")
	if !found {
		return "", false
	}
	v, _, _ := strings.Cut(rest, "&")
	return v, v != ""
}

// ExtractLoginParams reads the fixed hidden inputs from the course redirect
// page. It never fails; missing inputs are simply absent from the result.
func ExtractLoginParams(html string) LoginParams {
	params := LoginParams{}
	doc, err := parseDocument(html)
	if err != nil {
		return params
	}
	for _, key := range LoginParamKeys {
		sel := doc.Find(fmt.Sprintf(`input[id="%s"]`, key)).First()
		if v, ok := sel.Attr("value"); ok {
			params[key] = v
		}
	}
	return params
}

// ExtractDisplayName returns the user's name from the profile page.
func ExtractDisplayName(html string) (string, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return "", newError("ExtractDisplayName", ErrProfileParse, "parse profile page", err)
	}
	name := strings.TrimSpace(doc.Find("p.user-name").First().Text())
	if name == "" {
		return "", newError("ExtractDisplayName", ErrProfileParse, "user-name not found", nil)
	}
	return name, nil
}

// ExtractPortalToken returns the s token from the portal link on the
// profile page.
func ExtractPortalToken(html string) (string, bool) {
	doc, err := parseDocument(html)
	if err != nil {
		return "", false
	}

	var token string
	doc.Find("a[dataurl]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		dataURL, _ := a.Attr("dataurl")
		if !strings.Contains(dataURL, "portal.chaoxing.com/?s=") {
			return true
		}
		if m := portalTokenPattern.FindStringSubmatch(dataURL); m != nil {
			token = m[1]
			return false
		}
		return true
	})

	return token, token != ""
}

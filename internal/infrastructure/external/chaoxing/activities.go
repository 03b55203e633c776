package chaoxing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/xxt-hub/xxt-signin/internal/domain/activity"
	"github.com/xxt-hub/xxt-signin/internal/domain/course"
	"github.com/xxt-hub/xxt-signin/pkg/timeutil"
)

// Collection sub-steps, used as DomainError.Op.
const (
	stepRedirectPage = "redirect_page"
	stepActiveList   = "active_list"
	stepActiveDetail = "active_detail"
)

// ActivityCollector lists the open sign-in activities of a course.
type ActivityCollector struct {
	transport *Transport
	endpoints Endpoints
	logger    *slog.Logger
}

// NewActivityCollector creates a collector.
func NewActivityCollector(transport *Transport, endpoints Endpoints, logger *slog.Logger) *ActivityCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityCollector{transport: transport, endpoints: endpoints, logger: logger}
}

// Collect returns the open activities of c, each enriched with its sign-in
// requirements. Any failing step aborts the whole collection with
// ErrActivityList; no partial result is returned.
func (ac *ActivityCollector) Collect(ctx context.Context, session Session, c *course.Course) ([]*activity.Activity, error) {
	redirect, err := ac.transport.Do(ctx, Request{
		Op:  stepRedirectPage,
		URL: ac.endpoints.CourseRedirect,
		Query: url.Values{
			"courseid": {c.CourseID},
			"clazzid":  {c.ClassID},
			"cpi":      {c.CPI},
			"ismooc2":  {"1"},
		},
		Profile: ProfileBrowser,
		Session: session,
	})
	if err != nil {
		return nil, collectError(stepRedirectPage, "fetch course page", err)
	}

	cfid, ok := ExtractLoginParams(redirect.Text()).Get(ParamCFID)
	if !ok {
		return nil, collectError(stepRedirectPage, "missing cfid", nil)
	}

	listResp, err := ac.transport.Do(ctx, Request{
		Op:  stepActiveList,
		URL: ac.endpoints.ActiveList,
		Query: url.Values{
			"fid":                  {cfid},
			"courseId":             {c.CourseID},
			"classId":              {c.ClassID},
			"showNotStartedActive": {"0"},
			"_":                    {strconv.FormatInt(timeutil.NowMillis(), 10)},
		},
		Profile: ProfileBrowser,
		Session: session,
	})
	if err != nil {
		return nil, collectError(stepActiveList, "fetch active list", err)
	}

	var list ActiveListResponseDTO
	if err := json.Unmarshal(listResp.Body, &list); err != nil {
		return nil, collectError(stepActiveList, "decode active list", err)
	}

	activities := make([]*activity.Activity, 0, len(list.Data.ActiveList))
	for _, dto := range list.Data.ActiveList {
		if dto.Status.Int() != activity.StatusOpen {
			continue
		}

		a, err := mapActive(dto)
		if err != nil {
			return nil, collectError(stepActiveList, "map active entry", err)
		}

		if err := ac.enrich(ctx, session, a); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}

	ac.logger.Debug("collected activities",
		"class_id", c.ClassID,
		"listed", len(list.Data.ActiveList),
		"open", len(activities),
	)

	return activities, nil
}

// enrich fetches the activity detail and sets the requirement flags.
func (ac *ActivityCollector) enrich(ctx context.Context, session Session, a *activity.Activity) error {
	resp, err := ac.transport.Do(ctx, Request{
		Op:      stepActiveDetail,
		URL:     ac.endpoints.ActiveInfo,
		Query:   url.Values{"activeId": {a.ActiveID}},
		Profile: ProfileApp,
		Session: session,
	})
	if err != nil {
		return collectError(stepActiveDetail, "fetch detail of "+a.ActiveID, err)
	}

	var info ActiveInfoResponseDTO
	if err := json.Unmarshal(resp.Body, &info); err != nil {
		return collectError(stepActiveDetail, "decode detail of "+a.ActiveID, err)
	}
	if info.Data == nil {
		return collectError(stepActiveDetail, "missing data in detail of "+a.ActiveID, nil)
	}

	a.LocationRange = info.Data.LocationRange.Int()
	a.Describe(a.Bookkeeping.OtherID, info.Data.IfPhoto == 1, info.Data.IfOpenAddress == 1)
	return nil
}

func mapActive(dto ActiveDTO) (*activity.Activity, error) {
	a, err := activity.New(string(dto.ID), dto.NameOne)
	if err != nil {
		return nil, err
	}

	a.StartTime = timeutil.FromMillis(int64(dto.StartTime))
	if dto.EndTime != 0 {
		end := timeutil.FromMillis(int64(dto.EndTime))
		a.EndTime = &end
	}
	a.Status = dto.Status.Int()
	a.UserStatus = dto.UserStatus.Int()
	a.Bookkeeping = activity.Bookkeeping{
		OtherID:    string(dto.OtherID),
		GroupID:    dto.GroupID.Int(),
		Source:     dto.Source.Int(),
		IsLook:     dto.IsLook.Int(),
		Type:       dto.Type.Int(),
		ReleaseNum: dto.ReleaseNum.Int(),
		AttendNum:  dto.AttendNum.Int(),
		ActiveType: dto.ActiveType.Int(),
	}
	a.Describe(string(dto.OtherID), false, false)
	return a, nil
}

func collectError(step, message string, err error) error {
	return newError(step, ErrActivityList, fmt.Sprintf("%s failed: %s", step, message), err)
}

package lessonrun

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/compose"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/digest"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/persist"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/pipeline"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

type fakeComposer struct{ err error }

func (f fakeComposer) Compose(context.Context) (lesson.Lesson, compose.Report, error) {
	if f.err != nil {
		return lesson.Lesson{}, compose.Report{}, f.err
	}
	arts := []lesson.Article{compose.PlaceholderArticle(1), compose.PlaceholderArticle(2), compose.PlaceholderArticle(3)}
	arts[0].Title = "봄 축제"
	return lesson.Lesson{
		LessonID:            "lesson_20250101_120000",
		CreatedDate:         "2025-01-01",
		ArticleContent:      lesson.ArticleContent{Articles: arts},
		ConversationContent: lesson.ConversationContent{TopicName: "주말 계획", SampleDialogue: "A: 뭐 해요?"},
	}, compose.Report{}, nil
}

type fakePersister struct{ err error }

func (f fakePersister) PersistResult(_ context.Context, l lesson.Lesson) (persist.Result, error) {
	if f.err != nil {
		return persist.Result{LessonID: l.LessonID}, f.err
	}
	return persist.Result{LessonID: l.LessonID, StoreID: "store-1", Selected: 2, Inserted: 2, Confirmation: "Successfully processed lesson " + l.LessonID + "."}, nil
}

type fakeSender struct {
	mu    sync.Mutex
	calls int
	out   digest.EmailOutcome
}

func (f *fakeSender) Send(context.Context, digest.Digest) digest.EmailOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.out
}

type fakeRecorder struct {
	mu      sync.Mutex
	created int
	last    *lesson.LessonRun
}

func (r *fakeRecorder) Create(context.Context, *lesson.LessonRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created++
	return nil
}

func (r *fakeRecorder) Update(_ context.Context, run *lesson.LessonRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = run
	return nil
}

type WorkflowSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite

	env      *testsuite.TestWorkflowEnvironment
	sender   *fakeSender
	recorder *fakeRecorder
}

func TestWorkflowSuite(t *testing.T) {
	suite.Run(t, new(WorkflowSuite))
}

func (s *WorkflowSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.sender = &fakeSender{out: digest.EmailOutcome{Status: digest.StatusSuccess, Message: "Email sent successfully (status: 202)", Subject: "오늘의 한국어"}}
	s.recorder = &fakeRecorder{}
}

func (s *WorkflowSuite) register(p *pipeline.Pipeline) {
	acts := &Activities{Log: logger.Nop(), Pipeline: p, Recorder: s.recorder}
	s.env.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	s.env.RegisterActivityWithOptions(acts.Start, activity.RegisterOptions{Name: ActivityStart})
	s.env.RegisterActivityWithOptions(acts.Compose, activity.RegisterOptions{Name: ActivityCompose})
	s.env.RegisterActivityWithOptions(acts.Persist, activity.RegisterOptions{Name: ActivityPersist})
	s.env.RegisterActivityWithOptions(acts.Handoff, activity.RegisterOptions{Name: ActivityHandoff})
	s.env.RegisterActivityWithOptions(acts.Deliver, activity.RegisterOptions{Name: ActivityDeliver})
	s.env.RegisterActivityWithOptions(acts.Finish, activity.RegisterOptions{Name: ActivityFinish})
}

func (s *WorkflowSuite) execute(p *pipeline.Pipeline) pipeline.Outcome {
	s.register(p)
	runID := uuid.NewString()
	s.env.ExecuteWorkflow(WorkflowName, Input{RunID: runID})
	s.Require().True(s.env.IsWorkflowCompleted())
	s.Require().NoError(s.env.GetWorkflowError())

	var out pipeline.Outcome
	s.Require().NoError(s.env.GetWorkflowResult(&out))
	s.Equal(runID, out.RunID)
	return out
}

func (s *WorkflowSuite) TestSucceeds() {
	p := pipeline.New(logger.Nop(), fakeComposer{}, fakePersister{}, s.sender, nil)
	out := s.execute(p)

	s.Equal(lesson.RunStatusSucceeded, out.Status)
	s.Equal(lesson.StageDeliver, out.Reached)
	s.Nil(out.FirstFailure)
	s.Equal(1, s.sender.calls)
	s.Equal(1, s.recorder.created)
	s.Require().NotNil(s.recorder.last)
	s.Equal("lesson_20250101_120000", s.recorder.last.LessonID)
	s.NotEmpty(s.recorder.last.Lesson)
}

func (s *WorkflowSuite) TestPersistFailureContinues() {
	storeErr := lesson.NewStageError(lesson.StagePersist, lesson.KindStoreCreationFailed, errors.New("notion 401"))
	p := pipeline.New(logger.Nop(), fakeComposer{}, fakePersister{err: storeErr}, s.sender, nil)
	out := s.execute(p)

	s.Equal(lesson.RunStatusPartial, out.Status)
	s.Require().NotNil(out.FirstFailure)
	s.Equal(lesson.KindStoreCreationFailed, out.FirstFailure.Kind)
	s.Equal(1, s.sender.calls)
}

func (s *WorkflowSuite) TestGateRejectionSkipsDelivery() {
	p := pipeline.New(logger.Nop(), fakeComposer{}, fakePersister{}, s.sender, nil).
		WithHandoffEncoder(func(l lesson.Lesson) (pipeline.Handoff, error) {
			return pipeline.Handoff{Lesson: l, Payload: "nothing useful here"}, nil
		})
	out := s.execute(p)

	s.Equal(lesson.RunStatusPartial, out.Status)
	s.Equal(lesson.StageHandoff, out.Reached)
	s.Require().NotNil(out.FirstFailure)
	s.Equal(lesson.KindHandoffValidationFailed, out.FirstFailure.Kind)
	s.Equal("LessonPlan not found in handoff context", out.FirstFailure.Message)
	s.Zero(s.sender.calls)
	s.Nil(out.Email)
}

func (s *WorkflowSuite) TestComposeFailure() {
	p := pipeline.New(logger.Nop(), fakeComposer{err: lesson.NewStageError(lesson.StageCompose, lesson.KindCanceled, context.Canceled)}, fakePersister{}, s.sender, nil)
	out := s.execute(p)

	s.Equal(lesson.RunStatusFailed, out.Status)
	s.Require().NotNil(out.FirstFailure)
	s.Equal(lesson.KindCanceled, out.FirstFailure.Kind)
	s.Zero(s.sender.calls)
	s.Require().NotNil(s.recorder.last)
	s.Equal(string(lesson.RunStatusFailed), s.recorder.last.Status)
}

func TestWorkflowRejectsBlankRunID(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	env.ExecuteWorkflow(WorkflowName, Input{RunID: " "})
	require.True(t, env.IsWorkflowCompleted())
	require.ErrorContains(t, env.GetWorkflowError(), "missing run_id")
}

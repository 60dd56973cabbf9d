package app

import (
	"fmt"

	"github.com/guan-wang/guans-lala-land/internal/data/repos"
	"github.com/guan-wang/guans-lala-land/internal/data/repos/lessons"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/compose"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/digest"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/lessonid"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/persist"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/pipeline"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/prompts"
	"github.com/guan-wang/guans-lala-land/internal/modules/lesson/store"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

type Services struct {
	Prompts  *prompts.Registry
	Composer *compose.Composer
	Store    store.RecordStore
	Persist  *persist.Bridge
	Emailer  *digest.Emailer
	Recorder pipeline.RunRecorder
	Pipeline *pipeline.Pipeline
}

func wireServices(log *logger.Logger, cfg *Config, clients Clients, reposet repos.Repos) (Services, error) {
	var out Services

	reg, err := prompts.Default()
	if err != nil {
		return out, fmt.Errorf("load personas: %w", err)
	}
	overrides := make(map[prompts.PromptName]string, len(cfg.LLM.Models))
	for name, model := range cfg.LLM.Models {
		overrides[prompts.PromptName(name)] = model
	}
	reg = reg.WithModels(overrides)
	out.Prompts = reg

	var ids lessonid.Reserver = lessonid.NewMemory()
	if clients.Redis != nil {
		ids = lessonid.NewRedis(log, clients.Redis, "", cfg.Redis.IDTTL)
	}
	out.Composer = compose.New(log, clients.Provider, reg, ids)

	switch cfg.Store.Backend {
	case StoreNotion:
		out.Store = store.NewNotion(clients.Notion, cfg.Store.Title)
	case StoreSQL:
		out.Store = store.NewSQL(reposet.LearningStores, cfg.Store.Title)
	default:
		log.Warn("using in-memory record store; items are not persisted")
		out.Store = store.NewMemory()
	}

	selector := persist.NewSelector(log, cfg.Persist.Mode, clients.Provider, reg)
	out.Persist = persist.NewBridge(persist.NewAgent(log, out.Store, selector, persist.AgentConfig{
		ParentRef: cfg.Store.ParentRef,
		MaxItems:  cfg.Persist.MaxItems,
	}))

	transport := digest.NewSendGridTransport(clients.SendGrid, cfg.SendGrid.From, cfg.SendGrid.FromName)
	out.Emailer = digest.NewEmailer(log, clients.Provider, reg, transport, cfg.Email.Recipient)

	out.Recorder = lessons.NewRunRecorder(reposet.LessonRuns)
	out.Pipeline = pipeline.New(log, out.Composer, out.Persist, out.Emailer, out.Recorder)
	return out, nil
}

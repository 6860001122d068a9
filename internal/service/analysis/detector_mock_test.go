package analysis

import (
	"context"
	"sync"

	"github.com/2400030292/MedGuard-AI/internal/domain"
)

var _ Detector = &detectorMock{}

type detectorMock struct {
	ExtractFunc func(ctx context.Context, modality domain.Modality, preview *domain.ImagePreview) (string, error)
	AnalyzeFunc func(ctx context.Context, modality domain.Modality, text string, failMode bool) (domain.Verdict, error)

	calls struct {
		Extract []struct {
			Ctx      context.Context
			Modality domain.Modality
			Preview  *domain.ImagePreview
		}
		Analyze []struct {
			Ctx      context.Context
			Modality domain.Modality
			Text     string
			FailMode bool
		}
	}
	lockExtract sync.RWMutex
	lockAnalyze sync.RWMutex
}

func (mock *detectorMock) Extract(ctx context.Context, modality domain.Modality, preview *domain.ImagePreview) (string, error) {
	if mock.ExtractFunc == nil {
		panic("detectorMock.ExtractFunc: method is nil but Detector.Extract was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		Modality domain.Modality
		Preview  *domain.ImagePreview
	}{Ctx: ctx, Modality: modality, Preview: preview}
	mock.lockExtract.Lock()
	mock.calls.Extract = append(mock.calls.Extract, callInfo)
	mock.lockExtract.Unlock()
	return mock.ExtractFunc(ctx, modality, preview)
}

func (mock *detectorMock) ExtractCalls() []struct {
	Ctx      context.Context
	Modality domain.Modality
	Preview  *domain.ImagePreview
} {
	mock.lockExtract.RLock()
	calls := mock.calls.Extract
	mock.lockExtract.RUnlock()
	return calls
}

func (mock *detectorMock) Analyze(ctx context.Context, modality domain.Modality, text string, failMode bool) (domain.Verdict, error) {
	if mock.AnalyzeFunc == nil {
		panic("detectorMock.AnalyzeFunc: method is nil but Detector.Analyze was just called")
	}
	callInfo := struct {
		Ctx      context.Context
		Modality domain.Modality
		Text     string
		FailMode bool
	}{Ctx: ctx, Modality: modality, Text: text, FailMode: failMode}
	mock.lockAnalyze.Lock()
	mock.calls.Analyze = append(mock.calls.Analyze, callInfo)
	mock.lockAnalyze.Unlock()
	return mock.AnalyzeFunc(ctx, modality, text, failMode)
}

func (mock *detectorMock) AnalyzeCalls() []struct {
	Ctx      context.Context
	Modality domain.Modality
	Text     string
	FailMode bool
} {
	mock.lockAnalyze.RLock()
	calls := mock.calls.Analyze
	mock.lockAnalyze.RUnlock()
	return calls
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelforge/internal/config"
	"reelforge/internal/ideas"
	"reelforge/internal/logging"
	"reelforge/internal/media"
	"reelforge/internal/run"
	"reelforge/internal/services/kling"
	"reelforge/internal/services/runway"
	"reelforge/internal/studio"
	"reelforge/internal/testsupport"
)

func noSleep(context.Context, time.Duration) error { return nil }

// artifactServer serves fake media bytes for any URL the pipeline downloads.
func artifactServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("media-bytes:" + r.URL.Path))
	}))
	t.Cleanup(server.Close)
	return server
}

type fakeDesigner struct {
	prompt string
	err    error
}

func (f *fakeDesigner) DesignPrompt(context.Context, string, []byte) (string, error) {
	return f.prompt, f.err
}

type fakeBuilder struct {
	errs         []error
	calls        int
	gotReference []byte
}

func (f *fakeBuilder) Build(_ context.Context, _ string, reference []byte, outputPath string) error {
	f.calls++
	f.gotReference = reference
	if f.calls <= len(f.errs) && f.errs[f.calls-1] != nil {
		return f.errs[f.calls-1]
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("artwork"), 0o644)
}

type fakeChecker struct {
	verdicts []studio.Verdict
	errs     []error
	calls    int
}

func (f *fakeChecker) Check(context.Context, []byte, string) (studio.Verdict, error) {
	index := f.calls
	f.calls++
	if index < len(f.errs) && f.errs[index] != nil {
		return studio.Verdict{}, f.errs[index]
	}
	if index < len(f.verdicts) {
		return f.verdicts[index], nil
	}
	return studio.Verdict{Passed: true}, nil
}

type fakeWriter struct {
	script   string
	title    string
	titleErr error
}

func (f *fakeWriter) WriteScript(context.Context, string) (string, error) {
	return f.script, nil
}

func (f *fakeWriter) WriteTitle(context.Context, string) (string, error) {
	return f.title, f.titleErr
}

type fakeProducer struct {
	scenario *studio.Scenario
	err      error
	gotInput studio.ScenarioInput
}

func (f *fakeProducer) BuildScenario(_ context.Context, in studio.ScenarioInput) (*studio.Scenario, []byte, error) {
	f.gotInput = in
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.scenario, []byte(`{"scenario":"doc"}`), nil
}

type fakeSpeech struct{ err error }

func (f *fakeSpeech) Synthesize(_ context.Context, _, outputPath string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, []byte("mp3"), 0o644)
}

type fakeTranscribe struct {
	srt string
	err error
}

func (f *fakeTranscribe) TranscribeToSRT(context.Context, string) (string, error) {
	return f.srt, f.err
}

type fakeKling struct {
	openResult  *kling.Result
	openErr     error
	extendErrs  []error
	extendCalls int
}

func (f *fakeKling) ImageToVideo(context.Context, []byte, string, int) (*kling.Result, error) {
	return f.openResult, f.openErr
}

func (f *fakeKling) ExtendVideo(_ context.Context, videoID, _ string) (*kling.Result, error) {
	index := f.extendCalls
	f.extendCalls++
	if index < len(f.extendErrs) && f.extendErrs[index] != nil {
		return nil, f.extendErrs[index]
	}
	return &kling.Result{
		VideoID:  videoID + "x",
		VideoURL: f.openResult.VideoURL,
	}, nil
}

type fakeRunway struct {
	videoURL string
	errs     []error
	calls    int
}

func (f *fakeRunway) ImageToVideo(context.Context, []byte, string, string, int) (*runway.Segment, error) {
	index := f.calls
	f.calls++
	if index < len(f.errs) && f.errs[index] != nil {
		return nil, f.errs[index]
	}
	return &runway.Segment{TaskID: "task", VideoURL: f.videoURL}, nil
}

type fakeLipsync struct {
	outputURL string
	err       error
	gotVideo  string
	gotAudio  string
}

func (f *fakeLipsync) Sync(_ context.Context, videoURL, audioURL string) (string, error) {
	f.gotVideo = videoURL
	f.gotAudio = audioURL
	return f.outputURL, f.err
}

type fakeUploader struct {
	baseURL string
	paths   []string
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.paths = append(f.paths, path)
	return f.baseURL + "/hosted/" + filepath.Base(path), nil
}

type fakeMedia struct {
	duration     float64
	burnErr      error
	watermarkErr error
	calls        []string
}

func (f *fakeMedia) AudioDuration(context.Context, string) (float64, error) {
	f.calls = append(f.calls, "AudioDuration")
	return f.duration, nil
}

func (f *fakeMedia) BurnSubtitles(_ context.Context, _, _, _, outputPath string) error {
	f.calls = append(f.calls, "BurnSubtitles")
	if f.burnErr != nil {
		return f.burnErr
	}
	return os.WriteFile(outputPath, []byte("subtitled"), 0o644)
}

func (f *fakeMedia) ApplyWatermark(_ context.Context, _ string, _ media.WatermarkSpec, outputPath string) error {
	f.calls = append(f.calls, "ApplyWatermark")
	if f.watermarkErr != nil {
		return f.watermarkErr
	}
	return os.WriteFile(outputPath, []byte("watermarked"), 0o644)
}

func (f *fakeMedia) ConcatVideos(_ context.Context, _ []string, outputPath string) error {
	f.calls = append(f.calls, "ConcatVideos")
	return os.WriteFile(outputPath, []byte("concat"), 0o644)
}

func (f *fakeMedia) ExtractLastFrame(_ context.Context, _, outputPath string) error {
	f.calls = append(f.calls, "ExtractLastFrame")
	return os.WriteFile(outputPath, []byte("frame"), 0o644)
}

func (f *fakeMedia) AddTitleOverlay(_ context.Context, _, _, outputPath string) error {
	f.calls = append(f.calls, "AddTitleOverlay")
	return os.WriteFile(outputPath, []byte("titled"), 0o644)
}

func (f *fakeMedia) ApplyBranding(_ context.Context, _ string, _ media.BrandingSpec, outputPath string) error {
	f.calls = append(f.calls, "ApplyBranding")
	return os.WriteFile(outputPath, []byte("branded"), 0o644)
}

func klingScenario(extensions ...string) *studio.Scenario {
	scenario := &studio.Scenario{
		GlobalSettings: studio.GlobalSettings{Provider: "kling", AspectRatio: "9:16"},
		OpeningScene: studio.OpeningScene{
			Type: "image_to_video", ImageSource: "artwork.png",
			Prompt: "camera pushes in", Duration: 10,
		},
	}
	for _, prompt := range extensions {
		scenario.Extensions = append(scenario.Extensions, studio.Extension{Prompt: prompt})
	}
	return scenario
}

type testHarness struct {
	cfg      *config.Config
	deps     Deps
	kling    *fakeKling
	runway   *fakeRunway
	builder  *fakeBuilder
	checker  *fakeChecker
	producer *fakeProducer
	lipsync  *fakeLipsync
	uploader *fakeUploader
	media    *fakeMedia
	server   *httptest.Server
}

func newHarness(t *testing.T, scenario *studio.Scenario) *testHarness {
	t.Helper()
	server := artifactServer(t)
	h := &testHarness{
		cfg:      testsupport.NewConfig(t),
		server:   server,
		builder:  &fakeBuilder{},
		checker:  &fakeChecker{},
		producer: &fakeProducer{scenario: scenario},
		kling: &fakeKling{openResult: &kling.Result{
			VideoID: "vid-1", VideoURL: server.URL + "/kling/out.mp4",
		}},
		runway:   &fakeRunway{videoURL: server.URL + "/runway/segment.mp4"},
		lipsync:  &fakeLipsync{outputURL: server.URL + "/sync/out.mp4"},
		uploader: &fakeUploader{baseURL: server.URL},
		media:    &fakeMedia{duration: 25}, // needs 2 extensions
	}
	h.deps = Deps{
		Designer:   &fakeDesigner{prompt: "golden lighthouse, portrait"},
		Builder:    h.builder,
		Checker:    h.checker,
		Writer:     &fakeWriter{script: "A story.", title: "The Last Keeper"},
		Producer:   h.producer,
		Speech:     &fakeSpeech{},
		Transcribe: &fakeTranscribe{srt: "1\n00:00:00,000 --> 00:00:02,000\nA story.\n"},
		Kling:      h.kling,
		Runway:     h.runway,
		Lipsync:    h.lipsync,
		Filehost:   h.uploader,
		Media:      h.media,
	}
	return h
}

func (h *testHarness) controller() *Controller {
	return NewController(h.cfg, h.deps, logging.NewNop(),
		WithSleeper(noSleep),
		WithHTTPClient(h.server.Client()))
}

func testIdea() ideas.Idea {
	return ideas.Idea{Number: 3, Name: "lighthouse", Text: "A haunted lighthouse story"}
}

func TestExecuteKlingRunSucceeds(t *testing.T) {
	h := newHarness(t, klingScenario("waves crash", "light sweeps"))
	r, err := h.controller().Execute(context.Background(), testIdea())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if r.Status != run.StatusSuccess {
		t.Fatalf("status = %q (failed stage %q: %s)", r.Status, r.FailedStage, r.FailureReason)
	}
	if r.Provider != "kling" {
		t.Errorf("provider = %q", r.Provider)
	}
	if h.kling.extendCalls != 2 {
		t.Errorf("extend calls = %d", h.kling.extendCalls)
	}
	if got := stringOrEmpty(r.Assets.RawVideoURL); !strings.HasPrefix(got, "http") {
		t.Errorf("raw video url = %q", got)
	}
	for _, path := range []*string{r.Assets.ArtworkPath, r.Assets.AudioPath, r.Assets.RawVideoPath, r.Assets.LipsyncedPath} {
		if path == nil {
			t.Fatal("expected asset path, got nil")
		}
		if _, err := os.Stat(*path); err != nil {
			t.Errorf("asset missing on disk: %v", err)
		}
	}
	// Kling videos are already remote: only the audio gets uploaded.
	if len(h.uploader.paths) != 1 || filepath.Base(h.uploader.paths[0]) != run.AudioFile {
		t.Errorf("uploaded paths = %v", h.uploader.paths)
	}
}

func TestExecuteRunwayRunProducesLocalVideo(t *testing.T) {
	scenario := klingScenario("waves crash")
	scenario.GlobalSettings.Provider = "runway"
	h := newHarness(t, scenario)
	h.media.duration = 12 // one extension

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if r.Status != run.StatusSuccess {
		t.Fatalf("status = %q (failed stage %q: %s)", r.Status, r.FailedStage, r.FailureReason)
	}
	if got := stringOrEmpty(r.Assets.RawVideoURL); !strings.HasPrefix(got, "file://") {
		t.Errorf("raw video url = %q, want file://", got)
	}
	if h.runway.calls != 2 {
		t.Errorf("runway calls = %d", h.runway.calls)
	}
	// The local concat result must be uploaded before lip-sync.
	if len(h.uploader.paths) != 2 {
		t.Fatalf("uploaded paths = %v", h.uploader.paths)
	}
	if filepath.Base(h.uploader.paths[0]) != run.RawVideoFile {
		t.Errorf("first upload = %q, want raw video", h.uploader.paths[0])
	}
	if !strings.HasPrefix(h.lipsync.gotVideo, "http") {
		t.Errorf("lipsync video url = %q", h.lipsync.gotVideo)
	}
}

func TestArtworkGateRetriesThenPasses(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8
	h.checker.verdicts = []studio.Verdict{
		{Passed: false, Feedback: "warped hands"},
		{Passed: false, Feedback: "text artifacts"},
		{Passed: true},
	}

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if r.Status != run.StatusSuccess {
		t.Fatalf("status = %q", r.Status)
	}
	if h.builder.calls != 3 || h.checker.calls != 3 {
		t.Errorf("builds = %d, checks = %d", h.builder.calls, h.checker.calls)
	}
	if r.Assets.ArtworkRetryCount != 2 {
		t.Errorf("retry count = %d, want 2", r.Assets.ArtworkRetryCount)
	}
}

func TestArtworkGateExhaustionKeepsLastArtifact(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8
	h.checker.verdicts = []studio.Verdict{
		{Passed: false}, {Passed: false}, {Passed: false},
	}

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if r.Status != run.StatusSuccess {
		t.Fatalf("status = %q", r.Status)
	}
	if h.builder.calls != 3 {
		t.Errorf("builds = %d", h.builder.calls)
	}
	if r.Assets.ArtworkPath == nil {
		t.Error("last artifact should be kept")
	}
	if r.Assets.ArtworkRetryCount != 3 {
		t.Errorf("retry count = %d, want 3", r.Assets.ArtworkRetryCount)
	}

	raw, err := os.ReadFile(filepath.Join(r.ProjectDir, run.TrackerFile))
	if err != nil {
		t.Fatalf("read tracker: %v", err)
	}
	if !strings.Contains(string(raw), `"artwork_retry_count": 3`) {
		t.Errorf("tracker missing retry count: %s", raw)
	}
}

func TestArtworkBuildTotalFailureFailsRun(t *testing.T) {
	h := newHarness(t, klingScenario())
	boom := errors.New("image endpoint down")
	h.builder.errs = []error{boom, boom, boom}

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err == nil {
		t.Fatal("expected run failure")
	}
	if r.Status != run.StatusFailed || r.FailedStage != run.StageArtworkBuild {
		t.Errorf("status = %q, failed stage = %q", r.Status, r.FailedStage)
	}
}

func TestMalformedScenarioFailsRun(t *testing.T) {
	h := newHarness(t, nil)
	h.producer.err = errors.New("decode model json: invalid character")

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err == nil {
		t.Fatal("expected run failure")
	}
	if r.FailedStage != run.StageScenario {
		t.Errorf("failed stage = %q", r.FailedStage)
	}
	if r.FailureReason == "" {
		t.Error("failure reason should be recorded")
	}
	if h.kling.extendCalls != 0 || h.runway.calls != 0 {
		t.Error("later stages ran after required failure")
	}
}

func TestUnknownProviderFailsRun(t *testing.T) {
	scenario := klingScenario()
	scenario.GlobalSettings.Provider = "sora"
	h := newHarness(t, scenario)
	h.media.duration = 8

	r, _ := h.controller().Execute(context.Background(), testIdea())
	if r.Status != run.StatusFailed || r.FailedStage != run.StageScenario {
		t.Errorf("status = %q, failed stage = %q", r.Status, r.FailedStage)
	}
}

func TestOptionalSubtitleFailureDegradesGracefully(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8
	h.deps.Transcribe = &fakeTranscribe{err: errors.New("rate limited")}

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if r.Status != run.StatusSuccess {
		t.Fatalf("status = %q", r.Status)
	}
	if r.Assets.SubtitlePath != nil {
		t.Error("subtitle asset should stay nil")
	}
	for _, call := range h.media.calls {
		if call == "BurnSubtitles" {
			t.Error("burn-in should be skipped without subtitles")
		}
	}
}

func TestSubtitleBurnFailureKeepsPriorFinalVideo(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8
	h.media.burnErr = errors.New("ffmpeg exploded")

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if r.Status != run.StatusSuccess {
		t.Fatalf("status = %q", r.Status)
	}
	if r.Assets.SubtitledPath != nil {
		t.Error("subtitled asset should stay nil")
	}
	if got := stringOrEmpty(r.Assets.FinalVideoPath); filepath.Base(got) != run.LipsyncedFile {
		t.Errorf("final video = %q, want lipsynced output", got)
	}
}

func TestExtensionRetriesKeepLastVideoOnExhaustion(t *testing.T) {
	h := newHarness(t, klingScenario("waves", "light"))
	boom := errors.New("extend failed")
	h.kling.extendErrs = []error{boom, boom, boom} // first extension exhausts all attempts

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if r.Status != run.StatusSuccess {
		t.Fatalf("status = %q", r.Status)
	}
	// Three failed attempts on extension one, then the loop stops without
	// trying extension two.
	if h.kling.extendCalls != 3 {
		t.Errorf("extend calls = %d", h.kling.extendCalls)
	}
}

func TestTrackerReflectsFinalState(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(r.ProjectDir, run.TrackerFile))
	if err != nil {
		t.Fatalf("read tracker: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"status": "SUCCESS"`) {
		t.Error("tracker does not record final status")
	}
	if !strings.Contains(content, run.StageLipsync) {
		t.Error("tracker missing completed stages")
	}
}

func TestBrandingUsesTitleFallback(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8
	testsupport.WriteInputAsset(t, h.cfg.Paths.InputsDir, "intro.mp4")
	h.cfg.Assets.IntroVideo = "intro.mp4"
	h.deps.Writer = &fakeWriter{script: "A story.", titleErr: errors.New("model down")}

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := stringOrEmpty(r.Assets.Title); got != "Lighthouse" {
		t.Errorf("fallback title = %q", got)
	}
	if r.Assets.BrandedPath == nil {
		t.Error("branded output missing")
	}
}

// trackerSpy decodes tracker.json the moment a stage's first dependency
// call arrives, capturing exactly what a crash at that point would leave
// on disk.
type trackerSpy struct {
	t          *testing.T
	storageDir string
	projectDir string
	snapshots  []trackerSnapshot
}

type trackerSnapshot struct {
	stage string
	state run.Run
}

func (s *trackerSpy) record(stage string) {
	s.t.Helper()
	if s.projectDir == "" {
		matches, err := filepath.Glob(filepath.Join(s.storageDir, "*", run.TrackerFile))
		if err != nil || len(matches) != 1 {
			s.t.Fatalf("locate tracker: matches=%v err=%v", matches, err)
		}
		s.projectDir = filepath.Dir(matches[0])
	}
	data, err := os.ReadFile(filepath.Join(s.projectDir, run.TrackerFile))
	if err != nil {
		s.t.Fatalf("read tracker during %s: %v", stage, err)
	}
	var state run.Run
	if err := json.Unmarshal(data, &state); err != nil {
		s.t.Fatalf("decode tracker during %s: %v", stage, err)
	}
	s.snapshots = append(s.snapshots, trackerSnapshot{stage: stage, state: state})
}

type spiedDesigner struct {
	artworkDesigner
	spy *trackerSpy
}

func (s *spiedDesigner) DesignPrompt(ctx context.Context, idea string, reference []byte) (string, error) {
	s.spy.record(run.StageArtworkDesign)
	return s.artworkDesigner.DesignPrompt(ctx, idea, reference)
}

type spiedBuilder struct {
	artworkBuilder
	spy *trackerSpy
}

func (s *spiedBuilder) Build(ctx context.Context, prompt string, reference []byte, outputPath string) error {
	s.spy.record(run.StageArtworkBuild)
	return s.artworkBuilder.Build(ctx, prompt, reference, outputPath)
}

type spiedWriter struct {
	scriptWriter
	spy *trackerSpy
}

func (s *spiedWriter) WriteScript(ctx context.Context, idea string) (string, error) {
	s.spy.record(run.StageScriptWriting)
	return s.scriptWriter.WriteScript(ctx, idea)
}

type spiedSpeech struct {
	speechClient
	spy *trackerSpy
}

func (s *spiedSpeech) Synthesize(ctx context.Context, text, outputPath string) error {
	s.spy.record(run.StageAudioSynthesis)
	return s.speechClient.Synthesize(ctx, text, outputPath)
}

type spiedTranscribe struct {
	transcribeClient
	spy *trackerSpy
}

func (s *spiedTranscribe) TranscribeToSRT(ctx context.Context, audioPath string) (string, error) {
	s.spy.record(run.StageSubtitles)
	return s.transcribeClient.TranscribeToSRT(ctx, audioPath)
}

type spiedProducer struct {
	scenarioProducer
	spy *trackerSpy
}

func (s *spiedProducer) BuildScenario(ctx context.Context, in studio.ScenarioInput) (*studio.Scenario, []byte, error) {
	s.spy.record(run.StageScenario)
	return s.scenarioProducer.BuildScenario(ctx, in)
}

type spiedKling struct {
	klingClient
	spy *trackerSpy
}

func (s *spiedKling) ImageToVideo(ctx context.Context, imageBytes []byte, prompt string, durationSeconds int) (*kling.Result, error) {
	s.spy.record(run.StageVideoGeneration)
	return s.klingClient.ImageToVideo(ctx, imageBytes, prompt, durationSeconds)
}

type spiedLipsync struct {
	lipsyncClient
	spy *trackerSpy
}

func (s *spiedLipsync) Sync(ctx context.Context, videoURL, audioURL string) (string, error) {
	s.spy.record(run.StageLipsync)
	return s.lipsyncClient.Sync(ctx, videoURL, audioURL)
}

type spiedMedia struct {
	mediaToolkit
	spy *trackerSpy
}

func (s *spiedMedia) BurnSubtitles(ctx context.Context, videoPath, srtPath, style, outputPath string) error {
	s.spy.record(run.StageSubtitleBurn)
	return s.mediaToolkit.BurnSubtitles(ctx, videoPath, srtPath, style, outputPath)
}

func (s *spiedMedia) ApplyWatermark(ctx context.Context, videoPath string, spec media.WatermarkSpec, outputPath string) error {
	s.spy.record(run.StageWatermark)
	return s.mediaToolkit.ApplyWatermark(ctx, videoPath, spec, outputPath)
}

func (s *spiedMedia) ApplyBranding(ctx context.Context, videoPath string, spec media.BrandingSpec, outputPath string) error {
	s.spy.record(run.StageBranding)
	return s.mediaToolkit.ApplyBranding(ctx, videoPath, spec, outputPath)
}

func TestTrackerMirrorsRunAtEveryStageBoundary(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8
	testsupport.WriteInputAsset(t, h.cfg.Paths.InputsDir, "logo.png")
	testsupport.WriteInputAsset(t, h.cfg.Paths.InputsDir, "intro.mp4")
	h.cfg.Assets.Logo = "logo.png"
	h.cfg.Assets.IntroVideo = "intro.mp4"
	spy := &trackerSpy{t: t, storageDir: h.cfg.Paths.StorageDir}
	h.deps.Designer = &spiedDesigner{artworkDesigner: h.deps.Designer, spy: spy}
	h.deps.Builder = &spiedBuilder{artworkBuilder: h.deps.Builder, spy: spy}
	h.deps.Writer = &spiedWriter{scriptWriter: h.deps.Writer, spy: spy}
	h.deps.Speech = &spiedSpeech{speechClient: h.deps.Speech, spy: spy}
	h.deps.Transcribe = &spiedTranscribe{transcribeClient: h.deps.Transcribe, spy: spy}
	h.deps.Producer = &spiedProducer{scenarioProducer: h.deps.Producer, spy: spy}
	h.deps.Kling = &spiedKling{klingClient: h.deps.Kling, spy: spy}
	h.deps.Lipsync = &spiedLipsync{lipsyncClient: h.deps.Lipsync, spy: spy}
	h.deps.Media = &spiedMedia{mediaToolkit: h.deps.Media, spy: spy}

	r, err := h.controller().Execute(context.Background(), testIdea())
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if r.Status != run.StatusSuccess {
		t.Fatalf("status = %q (failed stage %q: %s)", r.Status, r.FailedStage, r.FailureReason)
	}
	if len(spy.snapshots) != len(run.StageOrder) {
		t.Fatalf("snapshots = %d, want %d", len(spy.snapshots), len(run.StageOrder))
	}

	for i, snap := range spy.snapshots {
		if snap.stage != run.StageOrder[i] {
			t.Fatalf("snapshot %d taken during %q, want %q", i, snap.stage, run.StageOrder[i])
		}
		if snap.state.CurrentStage != snap.stage {
			t.Errorf("%s: tracker current_stage = %q", snap.stage, snap.state.CurrentStage)
		}
		if got, want := strings.Join(snap.state.CompletedStages, ","), strings.Join(run.StageOrder[:i], ","); got != want {
			t.Errorf("%s: tracker completed_stages = %q, want %q", snap.stage, got, want)
		}
		if snap.state.ID != r.ID {
			t.Errorf("%s: tracker run id = %q, want %q", snap.stage, snap.state.ID, r.ID)
		}
	}

	// Each stage's output must be on disk before the next stage starts.
	assetChecks := []struct {
		stage   string
		asset   string
		present func(run.Assets) bool
	}{
		{run.StageArtworkBuild, "artwork_prompt", func(a run.Assets) bool { return a.ArtworkPrompt != nil }},
		{run.StageScriptWriting, "artwork_path", func(a run.Assets) bool { return a.ArtworkPath != nil }},
		{run.StageAudioSynthesis, "script", func(a run.Assets) bool { return a.Script != nil }},
		{run.StageSubtitles, "audio_path", func(a run.Assets) bool { return a.AudioPath != nil }},
		{run.StageScenario, "subtitle_path", func(a run.Assets) bool { return a.SubtitlePath != nil }},
		{run.StageVideoGeneration, "scenario_path", func(a run.Assets) bool { return a.ScenarioPath != nil }},
		{run.StageLipsync, "raw_video_path", func(a run.Assets) bool { return a.RawVideoPath != nil }},
		{run.StageSubtitleBurn, "lipsynced_path", func(a run.Assets) bool { return a.LipsyncedPath != nil }},
		{run.StageWatermark, "subtitled_path", func(a run.Assets) bool { return a.SubtitledPath != nil }},
		{run.StageBranding, "watermarked_path", func(a run.Assets) bool { return a.WatermarkedPath != nil }},
	}
	for _, check := range assetChecks {
		for _, snap := range spy.snapshots {
			if snap.stage != check.stage {
				continue
			}
			if !check.present(snap.state.Assets) {
				t.Errorf("tracker at %s missing %s from the prior stage", check.stage, check.asset)
			}
		}
	}

	// After the run the file must be a byte-for-byte image of the final state.
	want, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		t.Fatalf("encode run: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(r.ProjectDir, run.TrackerFile))
	if err != nil {
		t.Fatalf("read tracker: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("final tracker diverges from run record:\n%s\nwant:\n%s", got, want)
	}
}

func TestReferenceImageReachesBuilder(t *testing.T) {
	h := newHarness(t, klingScenario())
	h.media.duration = 8
	refPath := testsupport.WriteInputAsset(t, h.cfg.Paths.InputsDir, "reference.png")
	h.cfg.Assets.ReferenceImage = "reference.png"
	want, err := os.ReadFile(refPath)
	if err != nil {
		t.Fatalf("read reference: %v", err)
	}

	r, execErr := h.controller().Execute(context.Background(), testIdea())
	if execErr != nil {
		t.Fatalf("Execute: %v", execErr)
	}
	if r.Status != run.StatusSuccess {
		t.Fatalf("status = %q", r.Status)
	}
	if !bytes.Equal(h.builder.gotReference, want) {
		t.Errorf("builder received %d reference bytes, want %d", len(h.builder.gotReference), len(want))
	}
}

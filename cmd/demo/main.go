// cmd/demo/main.go
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Corphon/StreamPerformerMCP/internal/config"
	"github.com/Corphon/StreamPerformerMCP/internal/errors"
	"github.com/Corphon/StreamPerformerMCP/internal/live"
	_ "github.com/Corphon/StreamPerformerMCP/internal/llm/providers/anthropic"
	_ "github.com/Corphon/StreamPerformerMCP/internal/llm/providers/qwen"
	"github.com/Corphon/StreamPerformerMCP/internal/models"
	"github.com/Corphon/StreamPerformerMCP/internal/services"
)

var (
	flagName        string
	flagPersona     string
	flagTopic       string
	flagInterval    time.Duration
	flagInteractive bool
	flagOffline     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "performer-demo",
		Short: "在终端里跑一场模拟直播表演",
		Long: `不起服务器、不连前端，直接在终端观察表演引擎的逐拍输出。
离线模式下用内置剧本和模板台词，结果完全可复现。`,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "运行一场表演",
		RunE:  runPerformance,
	}
	runCmd.Flags().StringVar(&flagName, "name", "小喵", "主播名")
	runCmd.Flags().StringVar(&flagPersona, "persona", "元气猫娘，喜欢讲故事", "人设")
	runCmd.Flags().StringVar(&flagTopic, "topic", "第一次打职业比赛的经历", "表演话题")
	runCmd.Flags().DurationVar(&flagInterval, "interval", time.Second, "tick 间隔")
	runCmd.Flags().BoolVar(&flagInteractive, "interactive", false, "从标准输入读弹幕")
	runCmd.Flags().BoolVar(&flagOffline, "offline", false, "不调用LLM，使用内置剧本和模板台词")

	scriptCmd := &cobra.Command{
		Use:   "script",
		Short: "只生成剧本并以JSON输出",
		RunE:  printScript,
	}
	scriptCmd.Flags().StringVar(&flagName, "name", "小喵", "主播名")
	scriptCmd.Flags().StringVar(&flagPersona, "persona", "元气猫娘，喜欢讲故事", "人设")
	scriptCmd.Flags().StringVar(&flagTopic, "topic", "第一次打职业比赛的经历", "表演话题")
	scriptCmd.Flags().BoolVar(&flagOffline, "offline", false, "不调用LLM，输出内置剧本")

	rootCmd.AddCommand(runCmd, scriptCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newGenerator 按配置构建文本生成方；离线模式返回 nil
func newGenerator() live.Generator {
	if flagOffline {
		return nil
	}
	if err := config.InitConfig(getEnvDefault("DATA_DIR", "data")); err != nil {
		fmt.Fprintf(os.Stderr, "配置初始化失败，转为离线模式: %v\n", err)
		return nil
	}
	llmService := services.NewLLMService()
	if !llmService.IsReady() {
		fmt.Fprintln(os.Stderr, "LLM未配置，转为离线模式")
		return nil
	}
	return llmService
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printScript(cmd *cobra.Command, args []string) error {
	gen := newGenerator()
	script := live.NewScriptGenerator(gen).Generate(
		context.Background(), flagName, flagPersona, "", flagTopic)

	data, err := json.MarshalIndent(script, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runPerformance(cmd *cobra.Command, args []string) error {
	gen := newGenerator()
	script := live.NewScriptGenerator(gen).Generate(
		context.Background(), flagName, flagPersona, "", flagTopic)

	state := models.NewPerformanceState(flagName, flagPersona, "", flagTopic, script)
	stepper := live.NewPerformanceStepper(state, gen, nil)

	fmt.Printf("🎭 %s 开播了！话题：%s（剧本 %d 行）\n", flagName, flagTopic, len(script))
	fmt.Println(strings.Repeat("=", 60))

	if flagInteractive {
		go readDanmaku(state.Queue)
		fmt.Println("💬 直接输入弹幕回车发送；「SC ¥100 内容」发打赏")
	} else {
		go simulateAudience(state.Queue)
	}

	ctx := context.Background()
	for {
		result, err := stepper.Step(ctx)
		if err != nil {
			if errors.IsSessionEndedError(err) {
				break
			}
			return err
		}

		printStep(result)

		if stepper.Status() == live.StatusEnded {
			break
		}
		time.Sleep(flagInterval)
	}

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("🎬 下播，感谢观看")
	return nil
}

// simulateAudience 非交互模式下的固定弹幕脚本
func simulateAudience(queue *models.DanmakuQueue) {
	sends := []struct {
		delay time.Duration
		text  string
		user  string
	}{
		{2 * time.Second, "主播今天状态不错啊", "路人甲"},
		{5 * time.Second, "后来比赛赢了吗？", "好奇宝宝"},
		{9 * time.Second, "哈哈哈哈笑死", "乐子人"},
		{13 * time.Second, "SC ¥200 主播加油，今天第一次来", "金主"},
	}
	for _, send := range sends {
		time.Sleep(send.delay)
		queue.Push(models.NewDanmaku(send.text, send.user))
	}
}

// readDanmaku 交互模式：标准输入每行一条弹幕
func readDanmaku(queue *models.DanmakuQueue) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		queue.Push(models.NewDanmaku(text, "你"))
	}
}

func printStep(result *live.StepResult) {
	icon := map[models.Action]string{
		models.ActionContinue:  "📖",
		models.ActionRespond:   "💬",
		models.ActionTease:     "😏",
		models.ActionJump:      "💰",
		models.ActionImprovise: "🎲",
		models.ActionEnd:       "🎬",
	}[result.Action]

	fmt.Printf("\n[%03d] %s %s | %s\n", result.Step, icon, result.Action, result.Stage)
	if result.Danmaku != nil {
		fmt.Printf("      └ 回应弹幕 %s: %q (优先级 %.2f / 代价 %.2f)\n",
			result.Danmaku.User, result.Danmaku.Text, result.Priority, result.Cost)
	}
	if result.InnerMonologue != "" {
		fmt.Printf("      (%s)\n", result.InnerMonologue)
	}
	fmt.Printf("      %s\n", result.Speech)
	if result.Cue != nil && result.Cue.Emotion != nil {
		fmt.Printf("      🎛  情绪 %s(%.2f)", result.Cue.Emotion.Key, result.Cue.Emotion.Intensity)
		if result.Cue.Gesture != nil {
			fmt.Printf(" / 动作 %s", result.Cue.Gesture.Clip)
		}
		fmt.Println()
	}
	if result.EmotionBreak != nil {
		fmt.Printf("      💔 情绪断点 L%d: %s\n", result.EmotionBreak.Level, result.EmotionBreak.Trigger)
	}
}

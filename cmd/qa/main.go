package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"go-easyapply-automation/internal/answer"
	"go-easyapply-automation/internal/llm"
	"go-easyapply-automation/internal/models"
	"go-easyapply-automation/internal/qa"
	"go-easyapply-automation/internal/resume"
)

func main() {
	output := flag.String("o", "", "write the JSON report to this file")
	model := flag.String("model", "qwen2.5:3b", "Ollama model to use")
	endpoint := flag.String("endpoint", "", "Ollama endpoint (default $OLLAMA_ENDPOINT or http://localhost:11434)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: qa [flags] <resume.json|yaml|txt>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	resumePath := flag.Arg(0)

	_ = godotenv.Load()
	if *endpoint == "" {
		*endpoint = os.Getenv("OLLAMA_ENDPOINT")
	}
	if *endpoint == "" {
		*endpoint = "http://localhost:11434"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("🚀 Starting Resume Q&A Test")
	log.Printf("📄 Resume file: %s", resumePath)
	log.Printf("🤖 Using model: %s", *model)

	rc, err := resume.LoadFile(resumePath)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("✅ Successfully parsed resume (%d characters)", len(rc.Text()))

	settings := models.AISettings{Provider: llm.KindOllama, Model: *model, Endpoint: *endpoint, Temperature: 0.3, MaxTokens: 512}
	provider := llm.NewOllama(*endpoint, *model, nil)
	msg, err := provider.Test(ctx)
	if err != nil {
		log.Printf("❌ Ollama service is not available: %v", err)
		log.Println("💡 Make sure Ollama is running: 'ollama serve'")
		log.Printf("💡 Make sure the model is installed: 'ollama pull %s'", *model)
		os.Exit(1)
	}
	log.Printf("✅ %s", msg)

	answerer := answer.New(llm.NewGateway(provider, settings), rc, nil, "")
	report, err := qa.Run(ctx, answerer, qa.Questions, qa.TestInfo{ResumeFile: resumePath, Model: *model})
	if err != nil {
		log.Fatalf("❌ Test failed: %v", err)
	}

	if *output != "" {
		if err := report.Save(*output); err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Printf("💾 Results saved to: %s", *output)
	}
	log.Println("✅ Test completed successfully!")
}

package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/femcore/analysis"
	"github.com/sarchlab/femcore/fem"
	"github.com/sarchlab/femcore/tagrecording"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a tag recording over HTTP.",
	Long: "`serve --sqlite [file]` starts a read-only HTTP API over the " +
		"recorded registry events.",
	Run: func(cmd *cobra.Command, _ []string) {
		file := sqliteFileArg(cmd)
		if file == "" {
			log.Fatal("Error: a recording file is required, " +
				"use --sqlite or FEMCORE_SQLITE")
		}

		port, err := cmd.Flags().GetInt("port")
		dieOnErr(err)

		if port == 0 {
			if envPort := os.Getenv("FEMCORE_PORT"); envPort != "" {
				port, err = strconv.Atoi(envPort)
				dieOnErr(err)
			}
		}

		open, err := cmd.Flags().GetBool("open")
		dieOnErr(err)

		server := &recordingServer{reader: openRecording(file)}
		server.run(port, open)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("sqlite", "", "Recording file to read from")
	serveCmd.Flags().Int("port", 0,
		"Port to listen on, 0 picks a random port")
	serveCmd.Flags().Bool("open", false,
		"Open the served URL in a browser")
}

type recordingServer struct {
	reader tagrecording.DataReader
}

func (s *recordingServer) run(port int, open bool) {
	r := mux.NewRouter()

	r.HandleFunc("/api/sessions", s.listSessions)
	r.HandleFunc("/api/kinds", s.listKinds)
	r.HandleFunc("/api/events", s.listEvents)
	r.HandleFunc("/api/churn", s.listChurn)

	listener, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Printf("Listening %s\n", url)

	if open {
		err = browser.OpenURL(url)
		dieOnErr(err)
	}

	err = http.Serve(listener, r)
	dieOnErr(err)
}

func (s *recordingServer) listSessions(
	w http.ResponseWriter,
	r *http.Request,
) {
	rows, _, err := s.reader.Query(r.Context(), "tag_sessions",
		tagrecording.QueryParams{OrderBy: "StartWall ASC"})
	dieOnErr(err)

	sessions := make([]tagrecording.SessionEntry, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, *row.(*tagrecording.SessionEntry))
	}

	writeJSON(w, sessions)
}

func (s *recordingServer) listKinds(w http.ResponseWriter, r *http.Request) {
	kinds := []string{}

	for _, kind := range fem.AllKinds() {
		_, total, err := s.reader.Query(r.Context(), "tag_events",
			tagrecording.QueryParams{
				Where: "Kind = ?",
				Args:  []any{string(kind)},
				Limit: 1,
			})
		dieOnErr(err)

		if total > 0 {
			kinds = append(kinds, string(kind))
		}
	}

	writeJSON(w, kinds)
}

type listEventsRsp struct {
	Total  int                     `json:"total"`
	Events []tagrecording.TagEvent `json:"events"`
}

func (s *recordingServer) listEvents(w http.ResponseWriter, r *http.Request) {
	params := tagrecording.QueryParams{OrderBy: "Seq ASC"}

	if kind := r.FormValue("kind"); kind != "" {
		params.Where = "Kind = ?"
		params.Args = []any{kind}
	}

	if limitStr := r.FormValue("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Error: %s", err)

			return
		}

		params.Limit = limit
	}

	if offsetStr := r.FormValue("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "Error: %s", err)

			return
		}

		params.Offset = offset
	}

	rows, total, err := s.reader.Query(r.Context(), "tag_events", params)
	dieOnErr(err)

	events := make([]tagrecording.TagEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, *row.(*tagrecording.TagEvent))
	}

	writeJSON(w, listEventsRsp{Total: total, Events: events})
}

func (s *recordingServer) listChurn(w http.ResponseWriter, r *http.Request) {
	rows, _, err := s.reader.Query(r.Context(), "tag_churn",
		tagrecording.QueryParams{})
	if err != nil {
		// The churn table is only written when the session terminates.
		writeJSON(w, []analysis.KindChurn{})

		return
	}

	churn := make([]analysis.KindChurn, 0, len(rows))
	for _, row := range rows {
		churn = append(churn, *row.(*analysis.KindChurn))
	}

	writeJSON(w, churn)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}

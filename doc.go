// Package ytupload uploads large video files to YouTube through the
// resumable upload protocol, authenticated with OAuth2 offline access.
//
// # Overview
//
// A Client ties together the pieces in the sub-packages:
//
//   - CreateAuthURL: Consent page URL requesting a refresh token
//   - Authenticate: Exchange the one-time code and store the credentials
//   - Upload: Refresh the access token if needed and send a file in chunks
//   - Categories: List assignable video categories for a region
//
// Quick Start
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	client, err := ytupload.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Once per account, send the user to the consent page and store the result:
//
//	fmt.Println(client.CreateAuthURL())
//	// ... user approves, the redirect carries ?code=...
//	if err := client.Authenticate(ctx, code); err != nil {
//		log.Fatal(err)
//	}
//
// Upload a video:
//
//	video, err := client.Upload(ctx, "talk.mp4", map[string]string{
//		"snippet.title":        "Conference talk",
//		"snippet.tags[]":       "go,talk",
//		"snippet.categoryId":   "22",
//		"status.privacyStatus": metadata.PrivacyUnlisted,
//	}, ytupload.WithProgress(func(p upload.Progress) {
//		fmt.Printf("\r%d/%d", p.Chunk, p.Chunks)
//	}))
//
// # Configuration
//
// Settings come from, highest priority first:
//
//  1. Environment variables
//  2. Config file (ytupload.json, ytupload.yaml or ~/.config/ytupload/)
//  3. .env.local and .env in the working directory
//  4. Default values
//
// Required environment variables:
//
//   - YTUPLOAD_CREDENTIALS_FILE_PATH: Token file, relative to YTUPLOAD_APP_ROOT
//   - YTUPLOAD_GOOGLE_OAUTH_CLIENT_ID: OAuth client id
//   - YTUPLOAD_GOOGLE_OAUTH_CLIENT_SECRET: OAuth client secret
//   - YTUPLOAD_GOOGLE_OAUTH_REDIRECT_URI: OAuth redirect URI
//
// # Error Handling
//
// Failures are typed and re-exported from this package:
//
//	var chunkErr *ytupload.ChunkUploadError
//	if errors.As(err, &chunkErr) {
//		fmt.Printf("chunk %d failed: %v\n", chunkErr.Index, chunkErr.Err)
//	}
//	if ytupload.IsReauthRequired(err) {
//		fmt.Println("run: ytupload auth-url")
//	}
//
// A failed upload is not resumed; calling Upload again starts a new session.
//
// # Advanced Usage
//
// For more control, use the sub-packages directly:
//
//   - credentials: Token bundle storage
//   - auth: OAuth token lifecycle
//   - metadata: Dotted property builder and category table
//   - upload: Resumable chunked uploader
//   - transport: HTTP client, pacing and error classification
//   - config: Configuration management
package ytupload

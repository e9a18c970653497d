package mysql

const createReviewsSQL = `
CREATE TABLE IF NOT EXISTS reviews (
  platform            VARCHAR(16)  NOT NULL,
  review_id           VARCHAR(191) NOT NULL,
  app_id              VARCHAR(191) NOT NULL,
  user_name           VARCHAR(255) NOT NULL,
  content             TEXT         NOT NULL,
  score               TINYINT      NOT NULL,
  created_at          DATETIME     NOT NULL,
  fetched_at          DATETIME     NOT NULL,
  is_security_related TINYINT(1)   NOT NULL DEFAULT 0,
  PRIMARY KEY (platform, review_id),
  KEY idx_reviews_app (platform, app_id, created_at)
)
`

const insertReviewsPrefix = "INSERT INTO reviews\n" +
	"  (platform, review_id, app_id, user_name, content, score, created_at, fetched_at, is_security_related)\n" +
	"VALUES "

// COALESCE keeps the previously archived value when a re-run carries NULLs;
// fetched_at always moves forward to the latest run.
const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  user_name           = VALUES(user_name),\n" +
	"  content             = VALUES(content),\n" +
	"  score               = VALUES(score),\n" +
	"  created_at          = COALESCE(VALUES(created_at), reviews.created_at),\n" +
	"  fetched_at          = VALUES(fetched_at),\n" +
	"  is_security_related = VALUES(is_security_related)\n"

const listReviewsSQL = `
SELECT platform, review_id, user_name, content, score, created_at, fetched_at, is_security_related
FROM reviews
WHERE platform = ? AND app_id = ?
ORDER BY created_at DESC, review_id DESC
LIMIT ?
`

const countByAppSQL = `
SELECT COUNT(*) FROM reviews WHERE platform = ? AND app_id = ?
`

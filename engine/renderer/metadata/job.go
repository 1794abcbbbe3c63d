package metadata

/** @brief Definition for the body of a job. A non-nil error fails the job. */
type JobStart func() error

/** @brief Definition for completion of a job. */
type JobOnComplete func()

/** @brief Definition for failure of a job. */
type JobOnFailure func(error)

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief The job name, used in diagnostics. */
	Name string
	/** @brief Invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked when the job succeeds. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked with the error when the job fails. Optional. */
	OnFailure JobOnFailure
}

// Package scheduler 按cron表达式定时采集观察列表的行情并落入仓储。
package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"finx/pkg/logger"
	"finx/pkg/source"
)

// jobTimeout 单次任务执行的超时时间
const jobTimeout = 5 * time.Minute

// Scheduler 定时采集调度器，支持秒级cron表达式
type Scheduler struct {
	cron     *cron.Cron
	jobs     map[string]*Job
	executor JobExecutor
	mu       sync.RWMutex
	log      *logger.Entry
	ctx      context.Context
	cancel   context.CancelFunc
}

// New 创建调度器
func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		jobs:   make(map[string]*Job),
		log:    logger.WithComponent("scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// LoadConfig 从配置文件加载任务列表，无效的任务条目会被跳过
func (s *Scheduler) LoadConfig(configPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("任务配置文件不存在: %s", configPath)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("读取任务配置失败: %w", err)
	}

	var config JobsConfig
	if err := v.Unmarshal(&config); err != nil {
		return fmt.Errorf("解析任务配置失败: %w", err)
	}

	for _, jobConfig := range config.Jobs {
		if err := validateJobConfig(jobConfig); err != nil {
			s.log.WithError(err).Warnf("跳过无效任务配置: %s", jobConfig.Name)
			continue
		}
		if err := s.addJobLocked(jobConfig); err != nil {
			s.log.WithError(err).Errorf("添加任务失败: %s", jobConfig.Name)
		}
	}

	s.log.Infof("成功加载 %d 个采集任务", len(s.jobs))
	return nil
}

// Start 启动调度器，要求先设置执行器
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.executor == nil {
		return fmt.Errorf("任务执行器未设置")
	}

	s.cron.Start()
	s.refreshNextRunLocked()
	s.log.Info("采集调度器已启动")
	return nil
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
		s.log.Info("采集调度器已停止")
	case <-time.After(30 * time.Second):
		s.log.Warn("采集调度器停止超时")
	}
	return nil
}

// SetExecutor 设置任务执行器
func (s *Scheduler) SetExecutor(executor JobExecutor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executor = executor
}

// AddJob 添加任务
func (s *Scheduler) AddJob(config JobConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateJobConfig(config); err != nil {
		return err
	}
	return s.addJobLocked(config)
}

// RemoveJob 移除任务
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobName]
	if !exists {
		return fmt.Errorf("任务不存在: %s", jobName)
	}

	s.cron.Remove(job.EntryID)
	delete(s.jobs, jobName)
	s.log.Infof("任务已移除: %s", jobName)
	return nil
}

// GetJob 获取单个任务的状态副本
func (s *Scheduler) GetJob(jobName string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobName]
	if !exists {
		return nil, fmt.Errorf("任务不存在: %s", jobName)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// GetAllJobs 获取所有任务的状态副本
func (s *Scheduler) GetAllJobs() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobCopy := *job
		jobs = append(jobs, &jobCopy)
	}
	return jobs
}

// RunJob 立即执行一次任务，不影响其cron调度
func (s *Scheduler) RunJob(jobName string) error {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("任务不存在: %s", jobName)
	}
	if !job.Config.Enabled {
		return fmt.Errorf("任务已禁用: %s", jobName)
	}

	go s.executeJob(job)
	return nil
}

func (s *Scheduler) addJobLocked(config JobConfig) error {
	if _, exists := s.jobs[config.Name]; exists {
		return fmt.Errorf("任务已存在: %s", config.Name)
	}

	job := &Job{
		ID:     uuid.New().String(),
		Config: config,
		Status: JobStatusPending,
	}

	if !config.Enabled {
		job.Status = JobStatusDisabled
		s.jobs[config.Name] = job
		s.log.Infof("任务已添加（已禁用）: %s", config.Name)
		return nil
	}

	entryID, err := s.cron.AddFunc(config.Schedule, func() {
		s.executeJob(job)
	})
	if err != nil {
		return fmt.Errorf("添加任务到调度器失败: %w", err)
	}

	job.EntryID = entryID
	s.jobs[config.Name] = job
	s.log.Infof("任务已添加: %s (端点: %s 调度: %s)", config.Name, config.Endpoint, config.Schedule)
	return nil
}

func (s *Scheduler) executeJob(job *Job) {
	s.mu.Lock()
	if job.Status == JobStatusRunning {
		s.mu.Unlock()
		s.log.Warnf("任务正在运行，跳过本次执行: %s", job.Config.Name)
		return
	}
	job.Status = JobStatusRunning
	now := time.Now()
	job.LastRun = &now
	job.RunCount++
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, jobTimeout)
	defer cancel()

	err := s.executor.Execute(ctx, job)

	s.mu.Lock()
	if err != nil {
		job.Status = JobStatusError
		job.LastError = err
		job.ErrorCount++
		s.log.WithError(err).Errorf("任务执行失败: %s", job.Config.Name)
	} else {
		job.Status = JobStatusPending
		job.LastError = nil
		s.log.Debugf("任务执行成功: %s", job.Config.Name)
	}
	s.mu.Unlock()
}

// refreshNextRunLocked 回填各任务的下次运行时间，调用方必须持有锁
func (s *Scheduler) refreshNextRunLocked() {
	entries := s.cron.Entries()
	for _, job := range s.jobs {
		if !job.Config.Enabled {
			continue
		}
		for _, entry := range entries {
			if entry.ID == job.EntryID {
				nextRun := entry.Next
				job.NextRun = &nextRun
				break
			}
		}
	}
}

func validateJobConfig(config JobConfig) error {
	if strings.TrimSpace(config.Name) == "" {
		return fmt.Errorf("任务名称不能为空")
	}
	if strings.TrimSpace(config.Schedule) == "" {
		return fmt.Errorf("任务调度表达式不能为空")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(config.Schedule); err != nil {
		return fmt.Errorf("无效的调度表达式 '%s': %w", config.Schedule, err)
	}

	endpoint, ok := source.ParseEndpoint(config.Endpoint)
	if !ok {
		return fmt.Errorf("无效的采集端点: %s", config.Endpoint)
	}
	if endpoint == source.EndpointSearch {
		return fmt.Errorf("检索端点不支持定时采集")
	}
	if len(config.Symbols) == 0 {
		return fmt.Errorf("任务必须至少包含一个标的")
	}
	if endpoint == source.EndpointBars {
		if strings.TrimSpace(config.Interval) == "" {
			return fmt.Errorf("bars 任务必须指定K线周期")
		}
		if config.Limit <= 0 {
			return fmt.Errorf("bars 任务必须指定大于零的K线数量")
		}
	}
	if config.Strategy != "" {
		if _, err := source.ParseStrategy(config.Strategy); err != nil {
			return fmt.Errorf("无效的路由策略 '%s': %w", config.Strategy, err)
		}
	}
	return nil
}
